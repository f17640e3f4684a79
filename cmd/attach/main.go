// Command attach is a terminal REPL that drives /ws/terminal/{id}: it
// streams an agent's live output to the terminal and sends typed lines as
// nudges over the HTTP control plane, mirroring the teacher's isTTY/readline
// interactive-session pattern from cmd/cobra_cli.go but retargeted at a
// remote task rather than an in-process chat loop.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func main() {
	var addr, taskID, token string

	rootCmd := &cobra.Command{
		Use:   "attach",
		Short: "Attach to a running task's terminal stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			if taskID == "" {
				return fmt.Errorf("--task is required")
			}
			return run(addr, taskID, token)
		},
	}
	rootCmd.Flags().StringVar(&addr, "addr", "127.0.0.1:9876", "orchestrator daemon address")
	rootCmd.Flags().StringVar(&taskID, "task", "", "task ID to attach to")
	rootCmd.Flags().StringVar(&token, "token", "", "auth bearer token")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed).Sprint(err.Error()))
		os.Exit(1)
	}
}

func run(addr, taskID, token string) error {
	wsURL := url.URL{Scheme: "ws", Host: addr, Path: "/ws/terminal/" + taskID}
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), header)
	if err != nil {
		return fmt.Errorf("dial terminal stream: %w", err)
	}
	defer conn.Close()

	green := color.New(color.FgGreen).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				fmt.Println(gray("--- stream closed ---"))
				return
			}
			fmt.Print(green(string(data)))
		}
	}()

	rl, err := readline.New(fmt.Sprintf("(%s) > ", taskID))
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "/stop" {
			if err := postJSON(addr, token, "/api/agents/"+taskID+"/stop", nil); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			continue
		}
		body := map[string]string{"message": line}
		if err := postJSON(addr, token, "/api/agents/"+taskID+"/nudge", body); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

func postJSON(addr, token, path string, body any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(http.MethodPost, "http://"+addr+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("request to %s failed: %s", path, resp.Status)
	}
	return nil
}
