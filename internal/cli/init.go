package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/devkeep/devkeep/internal/workspace"
)

func init() {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the memory store",
		Long:  "Create the memory layout for the global scope and, when inside a project, the project scope.",
		Run:   runInit,
	}

	cmd.Flags().String("scope", "both", "Scope to initialize: global, project, or both")

	RootCmd.AddCommand(cmd)
}

func runInit(cmd *cobra.Command, args []string) {
	scopeStr, _ := cmd.Flags().GetString("scope")
	if _, err := parseScope(scopeStr); err != nil {
		exitErr("init", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		exitErr("init", err)
	}

	globalExisted := dirExists(workspace.GlobalRoot())
	projectRoot, inProject := workspace.ProjectRoot(cwd)
	projectExisted := inProject && dirExists(projectRoot)

	mgr, err := openManager()
	if err != nil {
		exitErr("init", err)
	}

	if scopeStr == "global" || scopeStr == "both" {
		if globalExisted {
			fmt.Printf("global memory already initialized at %s\n", mgr.GlobalDir().Root)
		} else {
			fmt.Printf("initialized global memory at %s\n", mgr.GlobalDir().Root)
		}
	}

	if scopeStr == "project" || scopeStr == "both" {
		projectDir, ok := mgr.ProjectDir()
		if !ok {
			fmt.Println("not in a project directory")
			return
		}
		if projectExisted {
			fmt.Printf("project memory already initialized at %s\n", projectDir.Root)
		} else {
			fmt.Printf("initialized project memory at %s\n", projectDir.Root)
		}
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
