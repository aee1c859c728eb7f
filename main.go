/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/tabzpay/progress-sub002/cmd"

func main() {
	cmd.Execute()
}
