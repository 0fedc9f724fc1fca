// internal/commands/list.go
package cyclebench

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mwiater/cyclebench/internal/primitive"
	"github.com/spf13/cobra"
)

// listCmd represents the 'list' command group for listing resources.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Group commands for listing resources",
	Long:  `The 'list' command groups subcommands that list primitives and commands.`,
}

// primitivesCmd implements 'list primitives'.
var primitivesCmd = &cobra.Command{
	Use:   "primitives",
	Short: "List the primitive variants that can be measured",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		opts := primitive.Options{}
		if cfg != nil {
			opts.MessageBytes = cfg.MessageBytes
			opts.AssociatedDataBytes = cfg.AssociatedDataBytes
		}
		return listPrimitives(cmd.OutOrStdout(), opts)
	},
}

// commandsCmd implements 'list commands', which prints the available
// commands and subcommands in a hierarchical, indented, two-column format.
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List all commands and subcommands in two columns",
	Long:  `The 'commands' subcommand lists all commands and subcommands in a hierarchical, indented format, with the command path in the first column and its short description in the second column.`,
	Run: func(cmd *cobra.Command, args []string) {
		listCommands(cmd.OutOrStdout(), rootCmd)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.AddCommand(primitivesCmd)
	listCmd.AddCommand(commandsCmd)
}

func listPrimitives(out io.Writer, opts primitive.Options) error {
	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Width(20)
	familyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(6)

	for _, variant := range primitive.Variants() {
		adapter, err := primitive.Lookup(variant.Name, opts)
		if err != nil {
			return err
		}
		sizes := adapter.BufferSizes()
		fmt.Fprintf(out, "%s%s%s\n", nameStyle.Render(variant.Name), familyStyle.Render(string(variant.Family)), variant.Description)
		fmt.Fprintf(out, "%s%spk %s, sk %s, ct %s, ss %s\n",
			strings.Repeat(" ", 20), strings.Repeat(" ", 6),
			humanize.IBytes(uint64(sizes.PublicKey)), humanize.IBytes(uint64(sizes.SecretKey)),
			humanize.IBytes(uint64(sizes.Ciphertext)), humanize.IBytes(uint64(sizes.SharedSecret)))
	}
	return nil
}

// listCommands prints the command tree in a two-column layout.
func listCommands(out io.Writer, root *cobra.Command) {
	commandData := collectCommandData(root, "", "")

	maxPathLength := 0
	for _, data := range commandData {
		if len(data.path) > maxPathLength {
			maxPathLength = len(data.path)
		}
	}

	fmt.Fprintln(out, "Commands and Subcommands:")
	for _, data := range commandData {
		if strings.Contains(data.path, "completion") || strings.Contains(data.path, "help") {
			continue
		}
		fmt.Fprintf(out, "  %s%s%s\n", data.path, strings.Repeat(" ", maxPathLength-len(data.path)+2), data.description)
	}
}

// commandInfo holds the path and description of a command for display.
type commandInfo struct {
	path        string
	description string
}

// collectCommandData collects command metadata for display, walking the
// command tree and returning a flattened slice of path/description pairs.
func collectCommandData(cmd *cobra.Command, currentPath string, indent string) []commandInfo {
	var allData []commandInfo

	fullPath := currentPath + cmd.Name()
	if currentPath != "" {
		fullPath = currentPath + " " + cmd.Name()
	}

	allData = append(allData, commandInfo{
		path:        indent + fullPath,
		description: cmd.Short,
	})

	for _, subCmd := range cmd.Commands() {
		allData = append(allData, collectCommandData(subCmd, fullPath, indent+"  ")...)
	}

	return allData
}
