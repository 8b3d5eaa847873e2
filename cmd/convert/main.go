package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"ascii-telnet/internal/config"
	"ascii-telnet/internal/convert"
	"ascii-telnet/internal/logging"
)

var defaultInputs = []string{"starwars", "starwars.ascii", "starwars.txt"}

func main() {
	in := flag.String("in", "", "asciimation text file (default: first of "+strings.Join(defaultInputs, ", ")+")")
	out := flag.String("out", config.DefaultDatasetPath, "Output JSONL dataset")
	height := flag.Int("height", convert.DefaultHeight, "Lines per frame")
	tick := flag.Duration("tick", convert.DefaultTick, "Duration of one tick")
	clearEOL := flag.Bool("clear-eol", false, "Append ESC[K to every line")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logging.SetDebugMode(*debug)

	input := *in
	if input == "" {
		found, ok := convert.FindInput(defaultInputs...)
		if !ok {
			fmt.Fprintf(os.Stderr, "未找到输入文件 (%s)\n", strings.Join(defaultInputs, ", "))
			os.Exit(1)
		}
		input = found
	}

	res, err := convert.ConvertFile(input, *out, convert.Options{
		Height:   *height,
		Tick:     *tick,
		ClearEOL: *clearEOL,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "转换失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("已转换 %d 帧 (跳过 %d 块, 时长 %.1fs) -> %s\n",
		res.Frames, res.Skipped, res.Duration.Seconds(), *out)
}
