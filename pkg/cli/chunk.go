package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/portmock/pkg/admin"
	"github.com/getmockd/portmock/pkg/httputil"
)

func newChunkCmd() *cobra.Command {
	var (
		adminURL string
		port     int
		uri      string
	)

	cmd := &cobra.Command{
		Use:   "chunk [data]",
		Short: "Publish a chunk to a streaming mock of a running server",
		Long: `Publish a chunk to the GET streaming entry at --uri on the listener bound to
--port. The chunk is appended to the entry's replay buffer and written to
every attached client. Without a data argument the chunk is read from stdin.`,
		Example: `  portmock chunk --port 8081 --uri /events 'hello'
  echo '{"n": 1}' | portmock chunk -p 8081 -u /events`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data string
			if len(args) == 1 {
				data = args[0]
			} else {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				data = string(b)
			}
			if err := sendChunk(adminURL, port, uri, data); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "sent %d byte(s) to :%d%s\n", len(data), port, uri)
			return nil
		},
	}

	defaultURL := os.Getenv("PORTMOCK_ADMIN_URL")
	if defaultURL == "" {
		defaultURL = fmt.Sprintf("http://localhost:%d", DefaultAdminPort)
	}
	cmd.Flags().StringVar(&adminURL, "admin-url", defaultURL, "Admin API base URL (env PORTMOCK_ADMIN_URL)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listener port")
	cmd.Flags().StringVarP(&uri, "uri", "u", "", "Streaming entry URI")
	_ = cmd.MarkFlagRequired("port")
	_ = cmd.MarkFlagRequired("uri")
	return cmd
}

func sendChunk(adminURL string, port int, uri, data string) error {
	body, err := json.Marshal(admin.SendChunkRequest{URI: uri, Chunk: data})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/listeners/%d/chunks", strings.TrimSuffix(adminURL, "/"), port)
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("admin API unreachable at %s: %w", adminURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var apiErr httputil.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Message == "" {
		return fmt.Errorf("admin API returned %s", resp.Status)
	}
	return fmt.Errorf("%s: %s", apiErr.Error, apiErr.Message)
}
