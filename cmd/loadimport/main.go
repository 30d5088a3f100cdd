// Command loadimport runs the spreadsheet import pipeline from a terminal.
package main

func main() {
	Execute()
}
