package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/maynagashev/lookbook/internal/api"
	"github.com/maynagashev/lookbook/models"
)

const (
	defaultServerURL = "http://localhost:3033"
	envServerURL     = "LOOKBOOK_SERVER"
)

const usage = `Использование:
  lookbook upload -server URL -url URL -label L -type T -season S -show-name N -designer D -description X [-request-id ID]
  lookbook get -server URL -request-id ID`

// errUsage сигнализирует о неверных аргументах командной строки.
var errUsage = errors.New("неверные аргументы")

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, api.NewHTTPClient); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
		}
		logger.Error("Ошибка выполнения команды", "error", err)
		stop()
		os.Exit(1)
	}
}

// run разбирает подкоманду и выполняет ее. newClient подменяется в тестах.
func run(ctx context.Context, args []string, out io.Writer, newClient func(string) api.Client) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: не указана команда", errUsage)
	}

	switch args[0] {
	case "upload":
		return runUpload(ctx, args[1:], out, newClient)
	case "get":
		return runGet(ctx, args[1:], out, newClient)
	default:
		return fmt.Errorf("%w: неизвестная команда %q", errUsage, args[0])
	}
}

func runUpload(ctx context.Context, args []string, out io.Writer, newClient func(string) api.Client) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	server := serverFlag(fs)

	var in models.InboundMetadata
	fs.StringVar(&in.URL, "url", "", "Исходный URL изображения")
	fs.StringVar(&in.Label, "label", "", "Название вещи")
	fs.StringVar(&in.Type, "type", "", "Тип вещи")
	fs.StringVar(&in.Season, "season", "", "Сезон")
	fs.StringVar(&in.ShowName, "show-name", "", "Название показа")
	fs.StringVar(&in.Designer, "designer", "", "Дизайнер")
	fs.StringVar(&in.Description, "description", "", "Описание")
	fs.StringVar(&in.RequestID, "request-id", "", "Идентификатор запроса (по умолчанию новый UUID)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if in.RequestID == "" {
		in.RequestID = uuid.NewString()
	}

	if err := newClient(*server).Upload(ctx, in); err != nil {
		return err
	}
	slog.Info("Метаданные отправлены", "request_id", in.RequestID)
	_, err := fmt.Fprintln(out, in.RequestID)
	return err
}

func runGet(ctx context.Context, args []string, out io.Writer, newClient func(string) api.Client) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	server := serverFlag(fs)
	requestID := fs.String("request-id", "", "Идентификатор запроса")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if *requestID == "" {
		return fmt.Errorf("%w: не указан -request-id", errUsage)
	}

	record, err := newClient(*server).GetRecord(ctx, *requestID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(record)
}

// serverFlag регистрирует флаг -server со значением из окружения по умолчанию.
func serverFlag(fs *flag.FlagSet) *string {
	def := defaultServerURL
	if value, ok := os.LookupEnv(envServerURL); ok && value != "" {
		def = value
	}
	return fs.String("server", def, fmt.Sprintf("Адрес сервера (env: %s)", envServerURL))
}
