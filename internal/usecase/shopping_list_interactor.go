package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/GoArmGo/foodgram/internal/core/ports"
	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/GoArmGo/foodgram/internal/messaging/payloads"
	"github.com/GoArmGo/foodgram/internal/metrics"
	"github.com/google/uuid"
)

const shoppingListContentType = "text/plain; charset=utf-8"

// ErrExportUnavailable — очередь задач выгрузки не настроена
var ErrExportUnavailable = errors.New("shopping list export is not configured")

// ShoppingListInteractor implements ShoppingListUseCase.
// Он же обрабатывает задачи фоновой выгрузки в режиме воркера.
type ShoppingListInteractor struct {
	store       ports.Store
	fileStorage ports.FileStorage
	publisher   ports.ShoppingListExportPublisher
	logger      *slog.Logger
	now         func() time.Time
}

// NewShoppingListUseCase создает сервис сводного списка покупок.
// publisher может быть nil, тогда фоновая выгрузка недоступна.
func NewShoppingListUseCase(
	store ports.Store,
	fileStorage ports.FileStorage,
	publisher ports.ShoppingListExportPublisher,
	logger *slog.Logger,
) *ShoppingListInteractor {
	return &ShoppingListInteractor{
		store:       store,
		fileStorage: fileStorage,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// AggregateShoppingList суммирует количества по ключу (имя, единица измерения).
// Результат отсортирован по имени, затем по единице. Одинаковые имена
// с разными единицами остаются отдельными позициями.
func AggregateShoppingList(lines []domain.CartLine) []domain.ShoppingListItem {
	type key struct {
		name string
		unit string
	}

	totals := make(map[key]int, len(lines))
	for _, line := range lines {
		totals[key{line.Name, line.MeasurementUnit}] += line.Amount
	}

	items := make([]domain.ShoppingListItem, 0, len(totals))
	for k, amount := range totals {
		items = append(items, domain.ShoppingListItem{
			Name:            k.name,
			MeasurementUnit: k.unit,
			Amount:          amount,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})
	return items
}

// RenderShoppingList пишет список покупок в текстовом виде
func RenderShoppingList(w io.Writer, username string, date time.Time, items []domain.ShoppingListItem) error {
	if _, err := fmt.Fprintf(w, "Список покупок для %s от %s:\n\n", username, date.Format("02.01.2006")); err != nil {
		return err
	}
	for _, item := range items {
		if _, err := fmt.Fprintf(w, "- %s — %d %s\n", item.Name, item.Amount, item.MeasurementUnit); err != nil {
			return err
		}
	}
	return nil
}

// BuildShoppingList собирает список покупок по корзине пользователя.
// Чистое чтение: повторный вызов без изменений корзины даёт тот же результат.
func (uc *ShoppingListInteractor) BuildShoppingList(ctx context.Context, userID uuid.UUID) (items []domain.ShoppingListItem, err error) {
	defer func() {
		metrics.ShoppingListBuilds.WithLabelValues(metrics.Result(err)).Inc()
	}()

	lines, err := uc.store.Cart().ListCartLines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка получения корзины пользователя %s: %w", userID, err)
	}
	if len(lines) == 0 {
		return nil, domain.ErrShoppingCartEmpty
	}

	return AggregateShoppingList(lines), nil
}

// ShoppingListObjectKey — ключ файла выгрузки в хранилище
func ShoppingListObjectKey(userID uuid.UUID) string {
	return fmt.Sprintf("shopping-lists/%s.txt", userID)
}

// RequestExport ставит в очередь задачу выгрузки списка покупок в файловое хранилище
// и возвращает адрес, по которому файл появится после обработки.
func (uc *ShoppingListInteractor) RequestExport(ctx context.Context, userID uuid.UUID) (string, error) {
	if uc.publisher == nil {
		return "", ErrExportUnavailable
	}

	user, err := uc.store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}

	// пустую корзину отклоняем сразу, а не в воркере
	hasLines, err := uc.store.Cart().HasCartLines(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("usecase: ошибка проверки корзины пользователя %s: %w", userID, err)
	}
	if !hasLines {
		return "", domain.ErrShoppingCartEmpty
	}

	payload := uc.exportPayloadFor(*user)
	if err := uc.publisher.PublishShoppingListExport(ctx, payload); err != nil {
		return "", fmt.Errorf("usecase: ошибка публикации задачи выгрузки: %w", err)
	}

	uc.logger.Info("usecase: задача выгрузки списка покупок опубликована", slog.String("user_id", userID.String()))
	return uc.fileStorage.ObjectURL(payload.ObjectKey), nil
}

func (uc *ShoppingListInteractor) exportPayloadFor(user domain.User) payloads.ShoppingListExportPayload {
	return payloads.ShoppingListExportPayload{
		UserID:      user.ID,
		Username:    user.Username,
		ObjectKey:   ShoppingListObjectKey(user.ID),
		RequestedAt: uc.now().UTC(),
	}
}

// HandleExport обрабатывает задачу из очереди: собирает список и кладёт файл в хранилище.
// Пустая корзина не считается ошибкой задачи, файл не создаётся.
func (uc *ShoppingListInteractor) HandleExport(ctx context.Context, payload payloads.ShoppingListExportPayload) (err error) {
	defer func() {
		metrics.ShoppingListExports.WithLabelValues(metrics.Result(err)).Inc()
	}()

	items, err := uc.BuildShoppingList(ctx, payload.UserID)
	if errors.Is(err, domain.ErrShoppingCartEmpty) {
		uc.logger.Info("worker: корзина пуста, выгрузка пропущена", slog.String("user_id", payload.UserID.String()))
		return nil
	}
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := RenderShoppingList(&buf, payload.Username, payload.RequestedAt, items); err != nil {
		return fmt.Errorf("usecase: ошибка формирования списка покупок: %w", err)
	}

	key := payload.ObjectKey
	if key == "" {
		key = ShoppingListObjectKey(payload.UserID)
	}

	url, err := uc.fileStorage.UploadFile(ctx, key, &buf, shoppingListContentType)
	if err != nil {
		return fmt.Errorf("usecase: ошибка загрузки списка покупок %s: %w", key, err)
	}

	uc.logger.Info("worker: список покупок выгружен",
		slog.String("user_id", payload.UserID.String()),
		slog.String("url", url),
		slog.Int("items", len(items)),
	)
	return nil
}
