// Command admin runs operator tasks against the image host database.
package main

func main() {
	Execute()
}
