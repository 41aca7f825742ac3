// Package main bookctl 命令行：本地运行一次生成，管理已保存的书籍
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"book-workshop-api/internal/config"
	"book-workshop-api/internal/domain/entity"
	"book-workshop-api/pkg/logger"
)

// tokenEnv 未传 --token 时读取的环境变量
const tokenEnv = "BOOK_WORKSHOP_TOKEN"

var errTokenMissing = errors.New("token is required (--token or " + tokenEnv + ")")

// cliEnv 子命令共享的运行环境
type cliEnv struct {
	configDir string
	token     string
	verbose   bool

	cfg  *config.Config
	cred entity.Credential
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	env := &cliEnv{}

	root := &cobra.Command{
		Use:           "bookctl",
		Short:         "Generate and manage illustrated books",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.load()
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&env.configDir, "config", "configs", "Config directory")
	root.PersistentFlags().StringVar(&env.token, "token", "", "Auth token forwarded to the remote services (default $"+tokenEnv+")")
	root.PersistentFlags().BoolVarP(&env.verbose, "verbose", "v", false, "Log at debug level to stderr")

	root.AddCommand(newGenerateCmd(env), newBooksCmd(env), newDraftCmd())
	return root
}

// load 加载配置并初始化日志；凭证缺失时在调用远端前报错
func (e *cliEnv) load() error {
	cfg, err := config.LoadFrom(e.configDir)
	if err != nil {
		return err
	}
	e.cfg = cfg

	level := "warn"
	if e.verbose {
		level = "debug"
	}
	logger.InitWithWriter(os.Stderr, level, "text")

	token := e.token
	if token == "" {
		token = os.Getenv(tokenEnv)
	}
	e.cred = entity.NewCredential(token)
	if !e.cred.Present() {
		return errTokenMissing
	}
	return nil
}
