package main

import (
	"fmt"
	"os"

	"github.com/dgnsrekt/tabfence/internal/doctor"
)

func main() {
	if err := doctor.Preflight(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "doctor: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("doctor: all checks passed")
}
