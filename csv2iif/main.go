package main

import (
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/jtsay362/csv2iif/csv2iif/cmd"
)

func main() {
	cc.Init(&cc.Config{
		RootCmd:       cmd.RootCmd,
		Headings:      cc.HiCyan + cc.Bold + cc.Underline,
		Commands:      cc.HiYellow + cc.Bold,
		Example:       cc.Italic,
		ExecName:      cc.Bold,
		Flags:         cc.Bold,
		FlagsDataType: cc.Italic + cc.HiBlue,
	})
	cmd.Execute()
}
