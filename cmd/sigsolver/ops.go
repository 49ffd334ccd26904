package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ytget/sigsolver/types"
)

func newDecryptCmd(g *globalFlags) *cobra.Command {
	var req types.DecryptRequest
	cmd := &cobra.Command{
		Use:   "decrypt <player_url>",
		Short: "Decode a signature and/or n value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.EncryptedSignature == "" && req.NParam == "" {
				return fmt.Errorf("--sig or --n is required")
			}
			svc, _, err := g.service()
			if err != nil {
				return err
			}
			req.PlayerURL = args[0]
			resp, err := svc.Decrypt(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&req.EncryptedSignature, "sig", "", "Encrypted signature")
	cmd.Flags().StringVar(&req.NParam, "n", "", "n parameter")
	return cmd
}

func newResolveCmd(g *globalFlags) *cobra.Command {
	var req types.ResolveRequest
	cmd := &cobra.Command{
		Use:   "resolve <player_url>",
		Short: "Rewrite a stream URL with decoded values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.StreamURL == "" && req.SignatureCipher == "" {
				return fmt.Errorf("--url or --cipher is required")
			}
			svc, _, err := g.service()
			if err != nil {
				return err
			}
			req.PlayerURL = args[0]
			resp, err := svc.Resolve(cmd.Context(), req)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.ResolvedURL)
			return err
		},
	}
	cmd.Flags().StringVar(&req.StreamURL, "url", "", "Stream URL")
	cmd.Flags().StringVar(&req.SignatureCipher, "cipher", "", "signatureCipher value (s=..&sp=..&url=..)")
	cmd.Flags().StringVar(&req.EncryptedSignature, "sig", "", "Encrypted signature")
	cmd.Flags().StringVar(&req.SignatureKey, "sig-key", "", "Query field for the signature (default sig)")
	cmd.Flags().StringVar(&req.NParam, "n", "", "n parameter (default: taken from the stream URL)")
	return cmd
}

func newStsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sts <player_url>",
		Short: "Print the player's signature timestamp",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := g.service()
			if err != nil {
				return err
			}
			resp, err := svc.GetSts(cmd.Context(), types.StsRequest{PlayerURL: args[0]})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.Sts)
			return err
		},
	}
}

func newWarmCmd(g *globalFlags) *cobra.Command {
	var (
		file        string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "warm [player_url...]",
		Short: "Build solvers for a list of player URLs",
		Long: `Build solvers for every player URL given as an argument or listed,
one per line, in --file ("-" reads stdin). Lines starting with # are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := append([]string(nil), args...)
			if file != "" {
				listed, err := readURLs(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				urls = append(urls, listed...)
			}
			if len(urls) == 0 {
				return fmt.Errorf("no player URLs given")
			}
			svc, _, err := g.service()
			if err != nil {
				return err
			}
			results, err := svc.WithWarmConcurrency(concurrency).Warm(cmd.Context(), urls...)
			out := cmd.OutOrStdout()
			for _, r := range results {
				if r.Err != nil {
					_, _ = fmt.Fprintf(out, "FAIL %s: %v\n", r.PlayerURL, r.Err)
					continue
				}
				_, _ = fmt.Fprintf(out, "ok   %s sig=%t n=%t\n", r.PlayerURL, r.HasSig, r.HasN)
			}
			if err != nil {
				return fmt.Errorf("warm: some players failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "File with one player URL per line")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Players built at once")
	return cmd
}

func readURLs(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}
