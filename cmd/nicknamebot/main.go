// Command nicknamebot runs the Discord nickname bot.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
