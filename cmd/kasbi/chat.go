package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"kasbi-client/internal/constant"
	"kasbi-client/internal/entity"
	"kasbi-client/internal/pkg/httpclient"
	"kasbi-client/internal/route"
	"kasbi-client/internal/service"

	"github.com/spf13/cobra"
)

func (a *app) printMessage(m entity.ChatMessage) {
	if m.Sender == entity.ChatSenderUser {
		cyan.Fprint(a.out, "Anda: ")
	} else {
		green.Fprint(a.out, constant.ChatbotName+": ")
	}
	fmt.Fprintln(a.out, m.Text)
}

// printFailure shows the apology bubble Send appends when a query fails.
// Rejected input never reaches the transcript, so nothing is printed for it.
func (a *app) printFailure(conv *service.Conversation, err error) {
	if errors.Is(err, service.ErrEmptyMessage) || errors.Is(err, service.ErrRequestPending) {
		return
	}
	msgs := conv.Messages()
	if last := msgs[len(msgs)-1]; last.Sender == entity.ChatSenderBot {
		a.printMessage(last)
	}
}

func (a *app) chatCmd() *cobra.Command {
	var fresh bool

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Ask KASBI a question, or open an interactive chat without arguments",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.enter(ctx, route.Chatbot); err != nil {
				return err
			}

			conv := a.container.NewConversation()
			if fresh {
				if err := conv.Reset(ctx); err != nil {
					return err
				}
			}
			if err := conv.Mount(ctx); err != nil {
				return err
			}

			if len(args) > 0 {
				reply, err := conv.Send(ctx, strings.Join(args, " "))
				if err != nil {
					a.printFailure(conv, err)
					return err
				}
				a.printMessage(*reply)
				return nil
			}
			return a.chatLoop(cmd, conv)
		},
	}

	cmd.Flags().BoolVar(&fresh, "new", false, "Start a new thread")
	return cmd
}

// chatLoop reads one question per line until /quit or end of input.
func (a *app) chatLoop(cmd *cobra.Command, conv *service.Conversation) error {
	ctx := cmd.Context()
	for _, m := range conv.Messages() {
		a.printMessage(m)
	}
	faint.Fprintln(a.out, "Pertanyaan cepat:")
	for i, q := range conv.QuickQuestions() {
		faint.Fprintf(a.out, "  /%d %s\n", i+1, q)
	}
	faint.Fprintln(a.out, "/new untuk percakapan baru, /quit untuk keluar")

	for {
		line, err := a.prompt("> ")
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/new":
			if err := conv.Reset(ctx); err != nil {
				return err
			}
			a.printMessage(conv.Messages()[0])
			continue
		case strings.HasPrefix(line, "/"):
			n, convErr := strconv.Atoi(line[1:])
			quick := conv.QuickQuestions()
			if convErr != nil || n < 1 || n > len(quick) {
				yellow.Fprintf(a.out, "Perintah tidak dikenal: %s\n", line)
				continue
			}
			line = quick[n-1]
			a.printMessage(entity.ChatMessage{Sender: entity.ChatSenderUser, Text: line})
		}

		faint.Fprintln(a.out, constant.ChatPendingIndicator)
		reply, err := conv.Send(ctx, line)
		if err != nil {
			a.printFailure(conv, err)
			if errors.Is(err, httpclient.ErrSessionExpired) {
				return err
			}
			continue
		}
		a.printMessage(*reply)
	}
}

func (a *app) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [thread-id]",
		Short: "Print a thread's messages (defaults to the current thread)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.enter(ctx, route.Chatbot); err != nil {
				return err
			}

			threadId := ""
			if len(args) == 1 {
				threadId = args[0]
			} else {
				var err error
				if threadId, err = a.container.Tokens.ReadThreadId(ctx); err != nil {
					return err
				}
			}
			if threadId == "" {
				fmt.Fprintln(a.out, "Belum ada percakapan.")
				return nil
			}

			msgs, err := a.container.Chatbot.History(ctx, threadId)
			if err != nil {
				return err
			}
			for _, m := range msgs {
				a.printMessage(m)
			}
			return nil
		},
	}
}

func (a *app) threadsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "threads",
		Short: "List your chat threads",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.enter(ctx, route.Chatbot); err != nil {
				return err
			}

			threads, err := a.container.Chatbot.Threads(ctx)
			if err != nil {
				return err
			}
			current, _ := a.container.Tokens.ReadThreadId(ctx)
			for _, t := range threads {
				marker := " "
				if t.Id == current {
					marker = "*"
				}
				fmt.Fprintf(a.out, "%s %-6s %s\n", marker, t.Id, t.Title)
			}
			return nil
		},
	}
}
