package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"book-workshop-api/internal/domain/entity"
)

func newDraftCmd() *cobra.Command {
	var draftPath string

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Edit a draft YAML file in place",
		// 只读写本地文件，不需要配置与令牌
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	}
	cmd.PersistentFlags().StringVarP(&draftPath, "draft", "d", "", "Draft YAML file")
	_ = cmd.MarkPersistentFlagRequired("draft")

	cmd.AddCommand(
		newDraftToggleCmd(&draftPath),
		newAddCharacterCmd(&draftPath),
		newUpdateCharacterCmd(&draftPath),
		newRemoveCharacterCmd(&draftPath),
		newRemoveImageCmd(&draftPath),
	)
	return cmd
}

func newDraftToggleCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:       "toggle <genre|style|tone> <tag>",
		Short:     "Add a tag, or remove it when already present (at most 3 per list)",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"genre", "style", "tone"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return editDraft(cmd, *path, func(d *entity.BookDraft) (string, error) {
				var toggle func(string) bool
				switch args[0] {
				case "genre":
					toggle = d.ToggleGenre
				case "style":
					toggle = d.ToggleWritingStyle
				case "tone":
					toggle = d.ToggleTextTone
				default:
					return "", fmt.Errorf("unknown tag list %q (genre, style or tone)", args[0])
				}
				if !toggle(args[1]) {
					return "", fmt.Errorf("%s list already has %d tags", args[0], entity.MaxTagsPerList)
				}
				return fmt.Sprintf("toggled %s %q", args[0], args[1]), nil
			})
		},
	}
}

// characterFlags 角色字段；只有显式传入的字段会被修改
type characterFlags struct {
	name, age, appearance, personality, background, motivation, role string
}

func (f *characterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Character name")
	cmd.Flags().StringVar(&f.age, "age", "", "Age (free text)")
	cmd.Flags().StringVar(&f.appearance, "appearance", "", "Appearance")
	cmd.Flags().StringVar(&f.personality, "personality", "", "Personality")
	cmd.Flags().StringVar(&f.background, "background", "", "Background")
	cmd.Flags().StringVar(&f.motivation, "motivation", "", "Motivation")
	cmd.Flags().StringVar(&f.role, "role", "", "main, secondary or villain")
}

func (f *characterFlags) apply(cmd *cobra.Command, c *entity.Character) error {
	set := func(flag string, dst *string, v string) {
		if cmd.Flags().Changed(flag) {
			*dst = v
		}
	}
	set("name", &c.Name, f.name)
	set("age", &c.Age, f.age)
	set("appearance", &c.Appearance, f.appearance)
	set("personality", &c.Personality, f.personality)
	set("background", &c.Background, f.background)
	set("motivation", &c.Motivation, f.motivation)
	if cmd.Flags().Changed("role") {
		role := entity.CharacterRole(f.role)
		if !role.Valid() {
			return fmt.Errorf("invalid role %q", f.role)
		}
		c.Role = role
	}
	return nil
}

func newAddCharacterCmd(path *string) *cobra.Command {
	var flags characterFlags
	cmd := &cobra.Command{
		Use:   "add-character",
		Short: "Add a character and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return editDraft(cmd, *path, func(d *entity.BookDraft) (string, error) {
				var c entity.Character
				if err := flags.apply(cmd, &c); err != nil {
					return "", err
				}
				c = d.AddCharacter(c)
				return "added character " + c.ID, nil
			})
		},
	}
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newUpdateCharacterCmd(path *string) *cobra.Command {
	var flags characterFlags
	cmd := &cobra.Command{
		Use:   "update-character <id>",
		Short: "Change the given fields of a character",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editDraft(cmd, *path, func(d *entity.BookDraft) (string, error) {
				for _, c := range d.Characters {
					if c.ID != args[0] {
						continue
					}
					if err := flags.apply(cmd, &c); err != nil {
						return "", err
					}
					d.UpdateCharacter(c)
					return "updated character " + c.ID, nil
				}
				return "", fmt.Errorf("character %s not found", args[0])
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newRemoveCharacterCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-character <id>",
		Short: "Remove a character",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editDraft(cmd, *path, func(d *entity.BookDraft) (string, error) {
				if !d.RemoveCharacter(args[0]) {
					return "", fmt.Errorf("character %s not found", args[0])
				}
				return "removed character " + args[0], nil
			})
		},
	}
}

func newRemoveImageCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-image <n>",
		Short: "Drop the n-th pre-generated illustration (1-based)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid image number %q", args[0])
			}
			return editDraft(cmd, *path, func(d *entity.BookDraft) (string, error) {
				if !d.RemoveGeneratedImage(n - 1) {
					return "", fmt.Errorf("draft has %d generated images", len(d.GeneratedImages))
				}
				return fmt.Sprintf("removed image %d, %d left", n, len(d.GeneratedImages)), nil
			})
		},
	}
}

// editDraft 读取草稿、修改并写回原文件
func editDraft(cmd *cobra.Command, path string, edit func(*entity.BookDraft) (string, error)) error {
	if path == "-" {
		return fmt.Errorf("draft edits need a file, not stdin")
	}
	draft, err := readDraft(path, nil)
	if err != nil {
		return err
	}
	msg, err := edit(draft)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write draft: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}
