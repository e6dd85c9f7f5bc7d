package main

import (
	"context"
	"fmt"
	"time"

	"github.com/coursehub/backend/internal/config"
	"github.com/coursehub/backend/internal/curriculum"
	"github.com/coursehub/backend/internal/database"
	"github.com/coursehub/backend/internal/models"
	"github.com/coursehub/backend/internal/repositories"
	"github.com/spf13/cobra"
)

// exportTimeout bounds the database read of the export command
const exportTimeout = 30 * time.Second

// TreeReader reads the saved curriculum tree of a course
type TreeReader interface {
	GetTree(ctx context.Context, courseID int) ([]models.Section, error)
}

// treeReaderOpener connects to the curriculum storage, returning the reader and a close function
type treeReaderOpener func(dsn string) (TreeReader, func() error, error)

// openTreeReader opens the MySQL curriculum repository
func openTreeReader(dsn string) (TreeReader, func() error, error) {
	db, err := database.Connect(dsn)
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewCurriculumRepository(db), db.Close, nil
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a curriculum file",
		Long:  "Load a YAML or JSON curriculum, assign missing temporary ids and report every broken invariant.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := loadCurriculum(args[0])
			if err != nil {
				return err
			}

			sections := curriculum.Hydrate(file.Sections, curriculum.NewSequenceGenerator("tmp"))
			violations := curriculum.Validate(sections)
			out := cmd.OutOrStdout()
			if len(violations) == 0 {
				fmt.Fprintf(out, "%s: OK (%d sections)\n", args[0], len(sections))
				return nil
			}

			for _, v := range violations {
				fmt.Fprintf(out, "%s\n", v)
			}
			return fmt.Errorf("%s: %d violation(s) found", args[0], len(violations))
		},
	}
}

func newNormalizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <file>",
		Short: "Print a normalized curriculum as YAML",
		Long:  "Assign missing temporary ids, re-stamp orders from list positions and drop payloads that do not match the lesson type.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := loadCurriculum(args[0])
			if err != nil {
				return err
			}

			file.Sections = normalize(file.Sections, curriculum.NewSequenceGenerator("tmp"))
			return writeYAML(cmd.OutOrStdout(), file)
		},
	}
}

func newExportCommand(open treeReaderOpener) *cobra.Command {
	var (
		courseID int
		dsn      string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the saved curriculum of a course as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			if courseID <= 0 {
				return fmt.Errorf("--course-id must be a positive number")
			}
			// Load the configuration only when no DSN was given
			if dsn == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				dsn = cfg.DSN()
			}

			reader, closeFn, err := open(dsn)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx, cancel := context.WithTimeout(cmd.Context(), exportTimeout)
			defer cancel()

			sections, err := reader.GetTree(ctx, courseID)
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), &curriculumFile{CourseID: courseID, Sections: sections})
		},
	}

	cmd.Flags().IntVar(&courseID, "course-id", 0, "ID of the course to export")
	cmd.Flags().StringVar(&dsn, "dsn", "", "MySQL DSN (default: built from DB_* environment variables)")
	return cmd
}
