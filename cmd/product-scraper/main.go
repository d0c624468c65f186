package main

import "product-scraper/cmd/product-scraper/cmd"

func main() {
	cmd.Execute()
}
