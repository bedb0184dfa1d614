package main

import "github.com/LINGESHWARI22/AI-Quote-Generator/internal/app"

func main() {
	app.Run()
}
