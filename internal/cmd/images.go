package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/openai-cli/internal/api"
	"github.com/salmonumbrella/openai-cli/internal/iocontext"
)

func newImagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "images",
		Aliases: []string{"image", "img"},
		Short:   "Generate and edit images",
	}

	cmd.AddCommand(newImagesGenerateCmd())
	cmd.AddCommand(newImagesEditCmd())
	cmd.AddCommand(newImagesVariationsCmd())

	return cmd
}

type imageResult struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL     string `json:"url,omitempty"`
		B64JSON string `json:"b64_json,omitempty"`
	} `json:"data"`
}

type imageOptions struct {
	n              int
	size           string
	responseFormat string
}

func (o *imageOptions) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&o.n, "n", "n", 0, "Number of images to return")
	cmd.Flags().StringVar(&o.size, "size", "", "Image size (256x256, 512x512 or 1024x1024)")
	cmd.Flags().StringVar(&o.responseFormat, "response-format", "", "url or b64_json")
}

func (o *imageOptions) apply(p api.Params) {
	if o.n > 0 {
		p["n"] = o.n
	}
	setString(p, "size", o.size)
	setString(p, "response_format", o.responseFormat)
}

func (o *imageOptions) applyForm(form *api.Form) {
	if o.n > 0 {
		form.Field("n", strconv.Itoa(o.n))
	}
	if o.size != "" {
		form.Field("size", o.size)
	}
	if o.responseFormat != "" {
		form.Field("response_format", o.responseFormat)
	}
}

func newImagesGenerateCmd() *cobra.Command {
	var (
		opts   imageOptions
		params paramFlags
	)

	cmd := &cobra.Command{
		Use:     "generate <prompt>",
		Aliases: []string{"gen", "create"},
		Short:   "Create images from a prompt",
		Example: strings.TrimSpace(`
  oai images generate "a lighthouse at dusk"
  oai images generate "a lighthouse" -n 2 --size 512x512 --json
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			prompt, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			body, err := params.build(func(p api.Params) {
				p["prompt"] = prompt
				opts.apply(p)
			})
			if err != nil {
				return err
			}
			client, err := getClient()
			if err != nil {
				return err
			}
			resp, err := client.Images().Generate(cmdContext(cmd), body)
			if err != nil {
				return err
			}
			return printImages(cmd, resp)
		}),
	}

	opts.register(cmd)
	params.register(cmd)
	return cmd
}

func newImagesEditCmd() *cobra.Command {
	var (
		image  string
		mask   string
		prompt string
		opts   imageOptions
	)

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit an image with a prompt and optional mask",
		Example: strings.TrimSpace(`
  oai images edit --image room.png --mask mask.png --prompt "add a plant"
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			form := api.NewForm().Field("prompt", prompt)
			if err := form.FileFromPath("image", image); err != nil {
				return err
			}
			if mask != "" {
				if err := form.FileFromPath("mask", mask); err != nil {
					return err
				}
			}
			opts.applyForm(form)
			client, err := getClient()
			if err != nil {
				return err
			}
			resp, err := client.Images().Edit(cmdContext(cmd), form)
			if err != nil {
				return err
			}
			return printImages(cmd, resp)
		}),
	}

	cmd.Flags().StringVar(&image, "image", "", "PNG image to edit")
	cmd.Flags().StringVar(&mask, "mask", "", "PNG mask; transparent areas are edited")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Description of the edit")
	opts.register(cmd)
	_ = cmd.MarkFlagRequired("image")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func newImagesVariationsCmd() *cobra.Command {
	var (
		image string
		opts  imageOptions
	)

	cmd := &cobra.Command{
		Use:     "variations",
		Aliases: []string{"vary"},
		Short:   "Create variations of an image",
		Example: "oai images variations --image logo.png -n 3",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			form := api.NewForm()
			if err := form.FileFromPath("image", image); err != nil {
				return err
			}
			opts.applyForm(form)
			client, err := getClient()
			if err != nil {
				return err
			}
			resp, err := client.Images().Variations(cmdContext(cmd), form)
			if err != nil {
				return err
			}
			return printImages(cmd, resp)
		}),
	}

	cmd.Flags().StringVar(&image, "image", "", "PNG image to vary")
	opts.register(cmd)
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

// printImages prints one URL per line in text mode. Base64 payloads are
// only available in JSON output.
func printImages(cmd *cobra.Command, resp *api.Response) error {
	if isJSON(cmd) {
		return printRawBody(cmd, resp.Body)
	}
	var result imageResult
	if err := resp.Decode(&result); err != nil {
		return err
	}
	out := iocontext.GetIO(cmd.Context()).Out
	for i, img := range result.Data {
		switch {
		case img.URL != "":
			_, _ = fmt.Fprintln(out, img.URL)
		case img.B64JSON != "":
			_, _ = fmt.Fprintf(out, "image %d: %d bytes of base64 (use --json to read it)\n", i+1, len(img.B64JSON))
		}
	}
	return nil
}
