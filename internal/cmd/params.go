package cmd

import (
	"github.com/spf13/cobra"

	"github.com/salmonumbrella/openai-cli/internal/api"
	"github.com/salmonumbrella/openai-cli/internal/paramfile"
)

// paramFlags adds --params and --set to commands that send a JSON body.
// Precedence, lowest first: --params, the command's own flags, --set.
type paramFlags struct {
	file string
	set  []string
}

func (p *paramFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.file, "params", "", "Request parameters as inline JSON/YAML, @file or @- for stdin")
	cmd.Flags().StringArrayVar(&p.set, "set", nil, "Set a request parameter (key=value, dotted keys nest; repeatable)")
	flagAlias(cmd.Flags(), "params", "pa")
}

// build layers the parameter sources. apply receives the map after --params
// is loaded and sets the command's own flags.
func (p *paramFlags) build(apply func(api.Params)) (api.Params, error) {
	params := map[string]any{}
	if p.file != "" {
		loaded, err := paramfile.Load(p.file)
		if err != nil {
			return nil, err
		}
		params = paramfile.Merge(params, loaded)
	}
	if apply != nil {
		apply(params)
	}
	if err := paramfile.Set(params, p.set); err != nil {
		return nil, err
	}
	return params, nil
}

// setString assigns v to params[key] when v is not empty.
func setString(params api.Params, key, v string) {
	if v != "" {
		params[key] = v
	}
}
