package agent

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"gsource-auth/internal/dto"
	"gsource-auth/pkg/constants"
)

// Version 由构建时 -ldflags 注入
var Version = "dev"

// NewRootCommand git-credential-gsource 命令
func NewRootCommand(ctx context.Context) *cobra.Command {
	var verbose bool
	st := &state{log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "git-credential-gsource",
		Short: "git credential helper backed by gsource-auth snapshots",
		Long: `
git-credential-gsource answers git credential requests on build agents
from snapshots minted by the gsource-auth controller. Configure it with

  git config --global credential.helper gsource
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !verbose {
				return nil
			}
			// stdout 留给 git 协议
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			st.log = l
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志到 stderr")

	root.AddCommand(
		newGetCommand(ctx, st),
		newIgnoredCommand("store"),
		newIgnoredCommand("erase"),
		newFetchCommand(ctx, st),
		newVersionCommand(),
	)
	return root
}

// state 子命令共享的运行状态
type state struct {
	log *zap.Logger
}

// GetOptions get 子命令参数
type GetOptions struct {
	// SnapshotFiles 按顺序尝试的快照文件
	SnapshotFiles []string
}

func (o *GetOptions) AddFlags(fs *pflag.FlagSet) {
	var def []string
	if v := os.Getenv(constants.EnvSnapshotFile); v != "" {
		def = strings.Split(v, string(os.PathListSeparator))
	}
	fs.StringSliceVar(&o.SnapshotFiles, "snapshot-file", def, "凭据快照文件，可重复指定")
}

func (o *GetOptions) Run(ctx context.Context, log *zap.Logger, in io.Reader, out io.Writer) error {
	req, err := ParseRequest(in)
	if err != nil {
		return err
	}
	return NewHelper(o.SnapshotFiles, log).Get(ctx, req, out)
}

func newGetCommand(ctx context.Context, st *state) *cobra.Command {
	opts := &GetOptions{}
	cmd := &cobra.Command{
		Use:   "get",
		Short: "answer a git credential request from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.Run(ctx, st.log, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

// store/erase 不保存任何内容，快照由 fetch 管理
func newIgnoredCommand(name string) *cobra.Command {
	return &cobra.Command{
		Use:    name,
		Short:  "accepted and ignored",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := io.Copy(io.Discard, cmd.InOrStdin())
			return err
		},
	}
}

// FetchOptions fetch 子命令参数
type FetchOptions struct {
	ControllerURL string
	Token         string
	ID            string
	URL           string
	Strategy      string
	Output        string
	SnapshotFile  string
	Timeout       time.Duration
}

func (o *FetchOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.ControllerURL, "controller", os.Getenv(constants.EnvControllerURL), "控制端地址")
	fs.StringVar(&o.Token, "token", os.Getenv(constants.EnvControllerAuth), "访问控制端的 token")
	fs.StringVar(&o.ID, "id", "", "桥接凭据 ID，例如 source:42")
	fs.StringVar(&o.URL, "url", "", "仓库地址，用于选择策略")
	fs.StringVar(&o.Strategy, "strategy", "", "GERRIT 或 CLOUD_PLATFORM")
	fs.StringVarP(&o.Output, "output", "o", "", "输出格式: yaml")
	fs.StringVar(&o.SnapshotFile, "snapshot-file", os.Getenv(constants.EnvSnapshotFile), "快照写入位置")
	fs.DurationVar(&o.Timeout, "timeout", 30*time.Second, "请求超时")
}

// Complete 校验参数
func (o *FetchOptions) Complete() error {
	if o.ControllerURL == "" {
		return fmt.Errorf("必须指定 --controller 或 %s", constants.EnvControllerURL)
	}
	if o.ID == "" {
		return fmt.Errorf("必须指定 --id")
	}
	if o.SnapshotFile == "" {
		return fmt.Errorf("必须指定 --snapshot-file 或 %s", constants.EnvSnapshotFile)
	}
	if o.Output != "" && o.Output != "yaml" {
		return fmt.Errorf("不支持的输出格式: %s", o.Output)
	}
	return nil
}

// fetchSummary fetch 的结果摘要，不包含 token
type fetchSummary struct {
	ID        string   `yaml:"id"`
	Strategy  string   `yaml:"strategy"`
	Username  string   `yaml:"username"`
	Scopes    []string `yaml:"scopes"`
	ExpiresAt string   `yaml:"expiresAt,omitempty"`
	File      string   `yaml:"file"`
}

func (o *FetchOptions) Run(ctx context.Context, log *zap.Logger, out io.Writer) error {
	fetcher := NewFetcher(o.ControllerURL, o.Token, o.Timeout)
	remote, blob, err := fetcher.Fetch(ctx, &dto.SourceResolveRequest{ID: o.ID, URL: o.URL, Strategy: o.Strategy})
	if err != nil {
		return err
	}
	if err := WriteSnapshot(o.SnapshotFile, blob); err != nil {
		return fmt.Errorf("写入快照失败: %w", err)
	}
	log.Info("凭据快照已写入", zap.String("id", remote.ID), zap.String("file", o.SnapshotFile))

	summary := fetchSummary{
		ID:        remote.ID,
		Strategy:  remote.Strategy,
		Username:  remote.Username,
		Scopes:    remote.Scopes,
		ExpiresAt: remote.ExpiresAt,
		File:      o.SnapshotFile,
	}
	if o.Output == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(summary)
	}
	_, err = fmt.Fprintf(out, "%s (%s) -> %s\n", summary.ID, summary.Strategy, summary.File)
	return err
}

func newFetchCommand(ctx context.Context, st *state) *cobra.Command {
	opts := &FetchOptions{}
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "fetch a credential snapshot from the controller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.Complete(); err != nil {
				return err
			}
			return opts.Run(ctx, st.log, cmd.OutOrStdout())
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}
