package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xandalm/contacts-query/config"
	"github.com/xandalm/contacts-query/core/query"
	"github.com/xandalm/contacts-query/utils"
)

// RequestFlags are the list request flags shared by compile and demo.
type RequestFlags struct {
	Where         string
	Order         []string
	Page          int
	Limit         int
	ArrayOperator string
}

func (f *RequestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Where, "where", "w", "", `condition: inline (name^=Jo) or a JSON tree ({"operator":"and","grouping":[...]})`)
	cmd.Flags().StringSliceVarP(&f.Order, "order", "o", nil, "order by field[:asc|desc], repeatable")
	cmd.Flags().IntVar(&f.Page, "page", query.DefaultPage, "page number, from 1")
	cmd.Flags().IntVar(&f.Limit, "limit", query.DefaultLimit, "rows per page")
	cmd.Flags().StringVar(&f.ArrayOperator, "array-operator", string(query.OperatorAnd), "operator joining a top-level JSON array of conditions (and|or)")
}

// listQuery builds the request. Page and limit are only set when given on the
// command line so configured defaults apply otherwise.
func (f *RequestFlags) listQuery(cmd *cobra.Command, cfg *config.Config) (query.ListQuery, error) {
	op, err := query.Resolve(f.ArrayOperator)
	if err != nil {
		return query.ListQuery{}, err
	}
	opts := append(cfg.ParseOptions(), query.WithArrayOperator(op))

	var where any
	if f.Where != "" {
		where = f.Where
		if utils.LooksLikeJSON(f.Where) {
			if where, err = utils.DecodeJSON([]byte(f.Where)); err != nil {
				return query.ListQuery{}, query.NewFieldError(query.ErrMalformedCondition, "", f.Where, err.Error())
			}
		}
	}

	var orderBy any
	if len(f.Order) > 0 {
		orderBy = f.Order
	}

	var page, limit *int
	if cmd.Flags().Changed("page") {
		page = query.IntPtr(f.Page)
	}
	if cmd.Flags().Changed("limit") {
		limit = query.IntPtr(f.Limit)
	}
	return query.NewListQuery(page, limit, where, orderBy, opts...)
}

func formatParams(params []any) string {
	if len(params) == 0 {
		return "[]"
	}
	out := "["
	for i, p := range params {
		if i > 0 {
			out += ", "
		}
		if p == nil {
			out += "NULL"
		} else {
			out += fmt.Sprintf("%q", fmt.Sprint(p))
		}
	}
	return out + "]"
}
