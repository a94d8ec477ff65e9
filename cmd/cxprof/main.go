package main

import "github.com/Dicklesworthstone/codex_profile_switcher/cmd/cxprof/cmd"

func main() {
	cmd.Execute()
}
