/*
Copyright © 2024 coachboard
*/
package main

import "github.com/coachboard/coachboard-service/cmd"

func main() {
	cmd.Execute()
}
