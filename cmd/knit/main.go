package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/uniyakcom/knit"
	"github.com/uniyakcom/knit/csvx"
)

// CLI 命令行定义
var CLI struct {
	Fmt struct {
		Input   string `arg:"" optional:"" help:"输入文件，缺省读 stdin。" type:"path"`
		Compact bool   `short:"c" help:"紧凑输出（默认美化缩进）。"`
	} `cmd:"" help:"重排 JSON 格式。"`

	Check struct {
		Input string `arg:"" optional:"" help:"输入文件，缺省读 stdin。" type:"path"`
	} `cmd:"" help:"校验 JSON 语法，报告出错行列。"`

	Csv struct {
		Input string `arg:"" optional:"" help:"输入文件（对象数组），缺省读 stdin。" type:"path"`
	} `cmd:"" help:"将 JSON 对象数组转为 CSV。"`

	Debug   bool             `short:"d" help:"输出调试日志。"`
	Version kong.VersionFlag `short:"V" help:"打印版本号。"`
}

const version = "0.1.0"

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("knit"),
		kong.Description("手写 JSON 引擎的命令行前端: 格式化、校验与 CSV 导出。"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	if CLI.Debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	var err error
	switch ctx.Command() {
	case "fmt", "fmt <input>":
		err = runFmt(CLI.Fmt.Input, CLI.Fmt.Compact)
	case "check", "check <input>":
		err = runCheck(CLI.Check.Input)
	case "csv", "csv <input>":
		err = runCsv(CLI.Csv.Input)
	default:
		err = fmt.Errorf("unknown command %q", ctx.Command())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "knit: %v\n", err)
		os.Exit(1)
	}
}

// readInput 读取输入文件，路径为空读 stdin
func readInput(path string) (string, error) {
	if path == "" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

// runFmt 解析后按值树原样回写（原始数字字面量无损保留）
func runFmt(path string, compact bool) error {
	text, err := readInput(path)
	if err != nil {
		return err
	}
	v, err := knit.Deserialize(text)
	if err != nil {
		return err
	}
	var opts []knit.Option
	if !compact {
		opts = append(opts, knit.Pretty())
	}
	out, err := knit.Serialize(v, opts...)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// runCheck 语法校验，出错时以行列号定位
func runCheck(path string) error {
	text, err := readInput(path)
	if err != nil {
		return err
	}
	if _, err := knit.Deserialize(text); err != nil {
		var pe *knit.ParseError
		if errors.As(err, &pe) {
			return fmt.Errorf("invalid JSON at line %d, column %d: %s", pe.Line, pe.Column, pe.Msg)
		}
		return err
	}
	slog.Debug("document valid", "bytes", len(text))
	fmt.Println("ok")
	return nil
}

// runCsv 对象数组 → CSV（表头取首个对象的键序）
func runCsv(path string) error {
	text, err := readInput(path)
	if err != nil {
		return err
	}
	v, err := knit.Deserialize(text)
	if err != nil {
		return err
	}
	return csvx.WriteValues(os.Stdout, v)
}
