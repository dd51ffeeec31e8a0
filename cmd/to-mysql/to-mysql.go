package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/labstack/gommon/log"

	"benritz/tomysql/internal/config"
	"benritz/tomysql/internal/convert"
)

var (
	configPath    string
	sourcePath    string
	sheet         string
	encoding      string
	delimiter     string
	tableName     string
	targetPath    string
	planPath      string
	dataBatchSize int
	collation     string
	verify        bool
	logLevel      string
)

func configOptions(c *config.Root) ([]convert.Option, error) {
	d, err := c.Source.DelimiterRune()
	if err != nil {
		return nil, err
	}

	opts := []convert.Option{
		convert.WithSheet(c.Source.Sheet),
		convert.WithEncoding(c.Source.Encoding),
		convert.WithDelimiter(d),
		convert.WithNAValues(c.Source.NAValues),
		convert.WithDataBatchSize(c.Target.DataBatchSize),
		convert.WithCollation(c.Target.Collation),
		convert.WithVerify(c.Target.Verify),
		convert.WithSchema(c.Schema),
	}
	if c.Source.Path != "" {
		opts = append(opts, convert.WithSourcePath(c.Source.Path))
	}
	if c.Target.Path != "" {
		opts = append(opts, convert.WithTargetPath(c.Target.Path))
	}
	if c.Target.Table != "" {
		opts = append(opts, convert.WithTableName(c.Target.Table))
	}
	return opts, nil
}

func parseLevel(s string) (log.Lvl, error) {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG, nil
	case "info":
		return log.INFO, nil
	case "warn":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	}
	return 0, fmt.Errorf("invalid log level: %s", s)
}

func main() {
	flag.StringVar(&configPath, "config", "", "Config file, e.g. a plan written with -plan")
	flag.StringVar(&sourcePath, "source", "", "Source .csv, .xls or .xlsx file")
	flag.StringVar(&sheet, "sheet", "", "Worksheet to read (default first sheet)")
	flag.StringVar(&encoding, "encoding", "", "CSV encoding: auto (default), utf-8, latin1, cp1252 or cp1254")
	flag.StringVar(&delimiter, "delimiter", "", "CSV field delimiter (default ,)")
	flag.StringVar(&tableName, "table", "", "Target table name (default "+convert.DefaultTableName+")")
	flag.StringVar(&targetPath, "target", "", "Output SQL file (default "+convert.DefaultTargetPath+")")
	flag.StringVar(&planPath, "plan", "", "Write the resolved column plan as YAML to this file")
	flag.IntVar(&dataBatchSize, "dataBatchSize", 0, "Rows per INSERT statement")
	flag.StringVar(&collation, "collation", "", "Collation for text columns (default utf8_general_ci)")
	flag.BoolVar(&verify, "verify", false, "Parse the generated CREATE TABLE statement before writing")
	flag.StringVar(&logLevel, "logLevel", "info", "Log level: debug, info, warn, error or off")
	flag.Parse()

	flagsSet := make(map[string]struct{})
	flag.Visit(func(f *flag.Flag) {
		flagsSet[f.Name] = struct{}{}
	})

	lvl, err := parseLevel(logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	logger := log.New("to-mysql")
	logger.SetOutput(os.Stderr)
	logger.SetLevel(lvl)

	opts := []convert.Option{convert.WithLogger(logger)}

	if configPath != "" {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}

		cfgOpts, err := configOptions(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		opts = append(opts, cfgOpts...)
	}

	if sourcePath != "" {
		opts = append(opts, convert.WithSourcePath(sourcePath))
	}
	if sheet != "" {
		opts = append(opts, convert.WithSheet(sheet))
	}
	if encoding != "" {
		opts = append(opts, convert.WithEncoding(encoding))
	}
	if delimiter != "" {
		d, err := config.SourceSection{Delimiter: delimiter}.DelimiterRune()
		if err != nil {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
			os.Exit(1)
		}
		opts = append(opts, convert.WithDelimiter(d))
	}
	if _, ok := flagsSet["table"]; ok {
		opts = append(opts, convert.WithTableName(tableName))
	}
	if targetPath != "" {
		opts = append(opts, convert.WithTargetPath(targetPath))
	}
	if planPath != "" {
		opts = append(opts, convert.WithPlanPath(planPath))
	}
	if dataBatchSize != 0 {
		opts = append(opts, convert.WithDataBatchSize(dataBatchSize))
	}
	if collation != "" {
		opts = append(opts, convert.WithCollation(collation))
	}
	if _, ok := flagsSet["verify"]; ok {
		opts = append(opts, convert.WithVerify(verify))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	conversion, err := convert.New(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	summary, err := conversion.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "conversion error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(summary.Path)
}
