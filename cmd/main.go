package main

import (
	"fmt"
	"os"

	"github.com/overlaytools/mkoverlay/cmd/cmd"
	"github.com/overlaytools/mkoverlay/internal/env"
)

func main() {
	PrintBanner()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func PrintBanner() {
	fmt.Println("           _                        _")
	fmt.Println(" _ __ ___ | | _______   _____ _ __ | | __ _ _   _")
	fmt.Println("| '_ ` _ \\| |/ / _ \\ \\ / / _ \\ '__|| |/ _` | | | |")
	fmt.Println("| | | | | |   < (_) \\ V /  __/ |   | | (_| | |_| |")
	fmt.Println("|_| |_| |_|_|\\_\\___/ \\_/ \\___|_|   |_|\\__,_|\\__, |")
	fmt.Println("                                            |___/")
	fmt.Println()
	fmt.Println("MBR partitioner and FAT32 overlay synthesizer")
	fmt.Println()
	fmt.Printf("Version:    %s\n", env.Version)
	fmt.Printf("Commit:     %s\n", env.CommitHash)
	fmt.Printf("Build Time: %s\n", env.BuildTime)
	fmt.Println()
}
