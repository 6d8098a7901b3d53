package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xandalm/contacts-query/entities"
	"github.com/xandalm/contacts-query/sqldb"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	RequestFlags
	Dialect string
}

// CompileResult holds the compiled fragments and the statements built from
// them.
type CompileResult struct {
	Entity     string `json:"entity"`
	Dialect    string `json:"dialect"`
	Where      string `json:"where,omitempty"`
	Params     []any  `json:"params"`
	OrderBy    string `json:"orderBy,omitempty"`
	Offset     int    `json:"offset"`
	Limit      int    `json:"limit"`
	Select     string `json:"select"`
	SelectArgs []any  `json:"selectArgs"`
	Count      string `json:"count"`
	CountArgs  []any  `json:"countArgs"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <entity>",
		Short: "Compile a list request into SQL",
		Long: fmt.Sprintf(`Compile a filter, an ordering and a page of a list request into
parameterized SQL for one entity. Known entities: %s.`, strings.Join(entities.Names(), ", ")),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	opts.RequestFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "", "sqlite, mysql or postgres (default: the configured driver)")

	return cmd
}

func runCompile(opts *CompileOptions, entity string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, logger, err := opts.settings()
	if err != nil {
		return err
	}
	def, err := entities.Lookup(entity)
	if err != nil {
		return formatter.Error(ExitCommandError, "unknown entity", err)
	}
	dialectName := opts.Dialect
	if dialectName == "" {
		dialectName = cfg.Database.Driver
	}
	dialect, err := sqldb.DialectFor(dialectName)
	if err != nil {
		return formatter.Error(ExitCommandError, "unknown dialect", err)
	}

	q, err := opts.listQuery(cmd, cfg)
	if err != nil {
		return formatter.Error(ExitFailure, "invalid request", err)
	}
	compiler, err := sqldb.NewCompiler(def,
		sqldb.WithDialect(dialect),
		sqldb.WithPageOptions(cfg.PageOptions()),
		sqldb.WithLogger(logger))
	if err != nil {
		return formatter.Error(ExitCommandError, "failed to create compiler", err)
	}
	list, err := compiler.CompileList(q)
	if err != nil {
		return formatter.Error(ExitFailure, "invalid request", err)
	}

	res := CompileResult{
		Entity:  def.Name,
		Dialect: dialect.Name,
		Params:  []any{},
		OrderBy: list.OrderBy,
		Offset:  list.Offset,
		Limit:   list.Limit,
	}
	if list.Where != nil {
		res.Where, res.Params = list.Where.Statement, list.Where.Params
	}
	if res.Select, res.SelectArgs, err = sqldb.ToSQL(def, sqldb.SelectBuilder(dialect, def, list)); err != nil {
		return formatter.Error(ExitCommandError, "failed to build select", err)
	}
	if res.Count, res.CountArgs, err = sqldb.ToSQL(def, sqldb.CountBuilder(dialect, def, list.CountWhere())); err != nil {
		return formatter.Error(ExitCommandError, "failed to build count", err)
	}

	formatter.VerboseLog("Compiled %s request for %s", def.Name, dialect.Name)
	return formatter.Success(res, res.text())
}

func (r CompileResult) text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "entity:  %s (%s)\n", r.Entity, r.Dialect)
	if r.Where != "" {
		fmt.Fprintf(&sb, "where:   %s\n", r.Where)
		fmt.Fprintf(&sb, "params:  %s\n", formatParams(r.Params))
	}
	if r.OrderBy != "" {
		fmt.Fprintf(&sb, "order:   %s\n", r.OrderBy)
	}
	fmt.Fprintf(&sb, "offset:  %d\n", r.Offset)
	fmt.Fprintf(&sb, "limit:   %d\n", r.Limit)
	fmt.Fprintf(&sb, "select:  %s\n", r.Select)
	fmt.Fprintf(&sb, "count:   %s", r.Count)
	return sb.String()
}
