package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("ERROR: Do not run 'go run main.go' from the repository root.")
	fmt.Println("")
	fmt.Println("To run the datalens web dashboard:")
	fmt.Println("  cd cmd/datalens-web")
	fmt.Println("  go run .")
	fmt.Println("")
	fmt.Println("To run the datalens terminal dashboard:")
	fmt.Println("  cd cmd/datalens-tui")
	fmt.Println("  go run .")
	fmt.Println("  go run . report <dataset-id>")
	fmt.Println("")
	fmt.Println("Both expect the analytics API at http://localhost:5000/api;")
	fmt.Println("set DATALENS_API_URL or a config file to point elsewhere.")
	fmt.Println("")
	os.Exit(1)
}
