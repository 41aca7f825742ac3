package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"book-workshop-api/internal/application/commit"
	"book-workshop-api/internal/application/generation"
	"book-workshop-api/internal/application/workflow"
	"book-workshop-api/internal/config"
	"book-workshop-api/internal/domain/entity"
	"book-workshop-api/internal/domain/repository"
	"book-workshop-api/internal/infrastructure/remote/bookgen"
	"book-workshop-api/internal/infrastructure/remote/booksapi"
	"book-workshop-api/internal/infrastructure/remote/imagegen"
)

func newGenerateCmd(env *cliEnv) *cobra.Command {
	var (
		draftPath   string
		bookID      string
		saveRetries int
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate illustrations and chapters for a draft and save the book",
		Long: `Runs one generation in-process: illustrations and chapters are generated
concurrently, then the book is created, or updated when --book-id is given.

The draft is a YAML file ("-" reads stdin). Progress is printed as it changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			draft, err := readDraft(draftPath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			tasks := &progressPrinter{TaskRepository: workflow.NewMemoryTaskStore(), out: out}
			wf, err := newLocalWorkflow(env.cfg, tasks)
			if err != nil {
				return err
			}
			return runGeneration(ctx, out, wf, env.cred, draft, bookID, saveRetries)
		},
	}

	cmd.Flags().StringVarP(&draftPath, "draft", "d", "", "Draft YAML file")
	cmd.Flags().StringVar(&bookID, "book-id", "", "Update this book instead of creating a new one")
	cmd.Flags().IntVar(&saveRetries, "save-retries", 1, "Retries of the save step when generation succeeded but saving failed")
	_ = cmd.MarkFlagRequired("draft")
	return cmd
}

func runGeneration(ctx context.Context, out io.Writer, wf *workflow.BookWorkflow, cred entity.Credential, draft *entity.BookDraft, bookID string, saveRetries int) error {
	task, err := wf.Submit(ctx, cred, draft, bookID)
	if err != nil {
		return err
	}
	if len(draft.GeneratedImages) > 0 {
		fmt.Fprintf(out, "task %s: reusing %d illustrations\n", task.ID, len(draft.GeneratedImages))
	} else {
		fmt.Fprintf(out, "task %s: generating %d illustrations\n", task.ID, draft.Illustrations.Count)
	}

	err = wf.Run(ctx, cred, task)
	for i := 0; err != nil && task.Status == entity.TaskStatusSaveFailed && i < saveRetries; i++ {
		fmt.Fprintf(out, "save failed: %v, retrying (%d/%d)\n", err, i+1, saveRetries)
		var retried *entity.GenerationTask
		retried, err = wf.RetrySave(ctx, cred, task.ID)
		if retried != nil {
			task = retried
		}
	}
	if err != nil {
		if task.FailedIndex != nil {
			return fmt.Errorf("%s stage failed at illustration %d: %w", task.FailedStage, *task.FailedIndex+1, err)
		}
		if task.FailedStage != "" {
			return fmt.Errorf("%s stage failed: %w", task.FailedStage, err)
		}
		return err
	}

	fmt.Fprintf(out, "saved book %s (%s)\n", task.BookID, task.Duration().Round(time.Millisecond))
	return nil
}

// newLocalWorkflow 进程内工作流：任务、锁与产物都只保存在内存
func newLocalWorkflow(cfg *config.Config, tasks repository.TaskRepository) (*workflow.BookWorkflow, error) {
	policy, err := generation.ParseReentryPolicy(cfg.Generation.ReentryPolicy)
	if err != nil {
		return nil, err
	}
	return workflow.NewBookWorkflow(
		generation.NewImageBatchGenerator(imagegen.NewClient(cfg.Clients.ImageGen)),
		generation.NewTextGenerator(bookgen.NewClient(cfg.Clients.BookGen)),
		newBookService(cfg),
		tasks,
		generation.NewMemoryRunGuard(),
		workflow.NewMemoryArtifactStore(),
		nil,
		policy,
	), nil
}

func newBookService(cfg *config.Config) *commit.Service {
	return commit.NewService(booksapi.NewClient(cfg.Clients.BooksAPI))
}

// readDraft 读取 YAML 草稿，未知字段视为错误
func readDraft(path string, stdin io.Reader) (*entity.BookDraft, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open draft: %w", err)
		}
		defer f.Close()
		r = f
	}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var draft entity.BookDraft
	if err := dec.Decode(&draft); err != nil {
		return nil, fmt.Errorf("parse draft %s: %w", path, err)
	}
	return &draft, nil
}

// progressPrinter 在进度持久化时打印变化
type progressPrinter struct {
	repository.TaskRepository
	out io.Writer

	mu   sync.Mutex
	last entity.Progress
}

func (p *progressPrinter) UpdateProgress(ctx context.Context, id string, progress entity.Progress) error {
	p.mu.Lock()
	if progress != p.last {
		p.last = progress
		text := string(progress.Text.State)
		if progress.Text.State == entity.TextDone {
			text = fmt.Sprintf("%s (%d chapters)", text, progress.Text.Chapters)
		}
		fmt.Fprintf(p.out, "images %d/%d, text %s\n", progress.ImagesCompleted, progress.ImagesTotal, text)
	}
	p.mu.Unlock()
	return p.TaskRepository.UpdateProgress(ctx, id, progress)
}
