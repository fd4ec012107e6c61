package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/taskroll/internal/normalize"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// AddOutputFlags registers the agent-friendly --json and --quiet flags
func AddOutputFlags(cmd *cobra.Command, quietHelp string) {
	cmd.Flags().Bool("json", false, "Output in JSON format")
	cmd.Flags().Bool("quiet", false, quietHelp)
}

// FormatterFor builds the output formatter from a command's flags
func FormatterFor(cmd *cobra.Command) *OutputFormatter {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	quietMode, _ := cmd.Flags().GetBool("quiet")
	return &OutputFormatter{JSON: jsonOutput, Quiet: quietMode}
}

// AddCollectionFlag registers --collection. Empty means the first
// configured collection.
func AddCollectionFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("collection", "c", "", "Collection holding the project (defaults to the first watched collection)")
}

// CollectionFrom resolves --collection against the configured collections
func (c *CLI) CollectionFrom(cmd *cobra.Command) (types.Collection, error) {
	name, _ := cmd.Flags().GetString("collection")
	if name != "" {
		return types.Collection(name), nil
	}
	collections := c.App.Collections()
	if len(collections) == 0 {
		return "", UsageError(fmt.Errorf("no collection given and none configured"))
	}
	return collections[0], nil
}

// UserFrom resolves --user against the configured current user
func (c *CLI) UserFrom(cmd *cobra.Command) (types.UserID, error) {
	user, _ := cmd.Flags().GetString("user")
	if user == "" {
		user = string(c.App.User())
	}
	if user == "" {
		return "", UsageError(fmt.Errorf("no user given: pass --user or set TASKROLL_USER"))
	}
	return types.UserID(user), nil
}

// ParseDate reads a date flag. "", "none" and "-" clear the date.
func ParseDate(s string) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "-":
		return time.Time{}, nil
	}
	t, ok := normalize.ParseInstant(s)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD or RFC 3339)", s)
	}
	return t, nil
}

// ParseUsers turns repeated or comma-separated user flags into ids
func ParseUsers(values []string) []types.UserID {
	var out []types.UserID
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, types.UserID(part))
			}
		}
	}
	return out
}
