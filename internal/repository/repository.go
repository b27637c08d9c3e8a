package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/finance-insights/internal/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO finance.users (username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findUser(ctx, "email = $1", email)
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.findUser(ctx, "id = $1", id)
}

func (r *Repository) findUser(ctx context.Context, where string, arg any) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM finance.users
		WHERE ` + where
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ListUserIDs returns the ids of all users
func (r *Repository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM finance.users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SnapshotVersion returns a token that changes whenever any of the user's
// financial records change. Results derived from a snapshot may be cached under it.
func (r *Repository) SnapshotVersion(ctx context.Context, userID int64) (string, error) {
	query := `
		SELECT concat_ws(':',
			(SELECT count(*) || '-' || coalesce(max(updated_at)::text, '') FROM finance.transactions WHERE user_id = $1),
			(SELECT count(*) || '-' || coalesce(max(updated_at)::text, '') FROM finance.budgets WHERE user_id = $1),
			(SELECT count(*) || '-' || coalesce(max(updated_at)::text, '') FROM finance.savings_goals WHERE user_id = $1),
			(SELECT count(*) || '-' || coalesce(max(updated_at)::text, '') FROM finance.debts WHERE user_id = $1),
			(SELECT count(*) || '-' || coalesce(max(updated_at)::text, '') FROM finance.investments WHERE user_id = $1),
			(SELECT count(*) || '-' || coalesce(max(updated_at)::text, '') FROM finance.accounts WHERE user_id = $1)
		)`
	var version string
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&version); err != nil {
		return "", fmt.Errorf("failed to get snapshot version: %w", err)
	}
	return version, nil
}

// LoadSnapshot reads every financial record of the user
func (r *Repository) LoadSnapshot(ctx context.Context, userID int64, asOf time.Time) (*models.FinancialSnapshot, error) {
	snap := &models.FinancialSnapshot{UserID: userID, AsOf: asOf}

	var err error
	if snap.Transactions, err = r.listTransactions(ctx, userID); err != nil {
		return nil, err
	}
	if snap.Budgets, err = r.listBudgets(ctx, userID); err != nil {
		return nil, err
	}
	if snap.SavingsGoals, err = r.listSavingsGoals(ctx, userID); err != nil {
		return nil, err
	}
	if snap.Debts, err = r.listDebts(ctx, userID); err != nil {
		return nil, err
	}
	if snap.Investments, err = r.listInvestments(ctx, userID); err != nil {
		return nil, err
	}
	if snap.Accounts, err = r.listAccounts(ctx, userID); err != nil {
		return nil, err
	}
	return snap, nil
}

func (r *Repository) listTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	query := `
		SELECT id, user_id, date, amount, type, coalesce(category, ''), coalesce(description, ''), is_recurring
		FROM finance.transactions
		WHERE user_id = $1
		ORDER BY date, id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var date sql.NullTime
		if err := rows.Scan(&t.ID, &t.UserID, &date, &t.Amount, &t.Type, &t.Category, &t.Description, &t.IsRecurring); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		// undated rows stay in the snapshot; analyzers skip them
		if date.Valid {
			t.Date = date.Time
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (r *Repository) listBudgets(ctx context.Context, userID int64) ([]models.Budget, error) {
	query := `
		SELECT id, user_id, category, month, monthly_limit, alert_threshold
		FROM finance.budgets
		WHERE user_id = $1`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []models.Budget
	for rows.Next() {
		var b models.Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &b.Month, &b.MonthlyLimit, &b.AlertThreshold); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *Repository) listSavingsGoals(ctx context.Context, userID int64) ([]models.SavingsGoal, error) {
	query := `
		SELECT id, user_id, name, current_amount, target_amount, target_date
		FROM finance.savings_goals
		WHERE user_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list savings goals: %w", err)
	}
	defer rows.Close()

	var goals []models.SavingsGoal
	for rows.Next() {
		var g models.SavingsGoal
		var target sql.NullTime
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.CurrentAmount, &g.TargetAmount, &target); err != nil {
			return nil, fmt.Errorf("failed to scan savings goal: %w", err)
		}
		if target.Valid {
			g.TargetDate = target.Time
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *Repository) listDebts(ctx context.Context, userID int64) ([]models.Debt, error) {
	query := `
		SELECT id, user_id, name, current_balance, interest_rate, monthly_payment
		FROM finance.debts
		WHERE user_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	defer rows.Close()

	var debts []models.Debt
	for rows.Next() {
		var d models.Debt
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.CurrentBalance, &d.InterestRate, &d.MonthlyPayment); err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}

func (r *Repository) listInvestments(ctx context.Context, userID int64) ([]models.Investment, error) {
	query := `
		SELECT id, user_id, symbol, type, quantity, purchase_price, current_price, coalesce(dividends, 0)
		FROM finance.investments
		WHERE user_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	defer rows.Close()

	var investments []models.Investment
	for rows.Next() {
		var i models.Investment
		if err := rows.Scan(&i.ID, &i.UserID, &i.Symbol, &i.Type, &i.Quantity, &i.PurchasePrice, &i.CurrentPrice, &i.Dividends); err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		investments = append(investments, i)
	}
	return investments, rows.Err()
}

func (r *Repository) listAccounts(ctx context.Context, userID int64) ([]models.Account, error) {
	query := `
		SELECT id, user_id, name, balance, currency
		FROM finance.accounts
		WHERE user_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Balance, &a.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// LatestPortfolioMark returns the most recently recorded portfolio value, or nil when none exists
func (r *Repository) LatestPortfolioMark(ctx context.Context, userID int64) (*models.PortfolioMark, error) {
	query := `
		SELECT value, recorded_at
		FROM finance.portfolio_marks
		WHERE user_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1`
	mark := &models.PortfolioMark{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&mark.Value, &mark.RecordedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio mark: %w", err)
	}
	return mark, nil
}

// SavePortfolioMark records the user's portfolio value
func (r *Repository) SavePortfolioMark(ctx context.Context, userID int64, mark models.PortfolioMark) error {
	query := `
		INSERT INTO finance.portfolio_marks (user_id, value, recorded_at)
		VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, userID, mark.Value, mark.RecordedAt); err != nil {
		return fmt.Errorf("failed to save portfolio mark: %w", err)
	}
	return nil
}

// HasNotification reports whether a notification with the same reference was sent since the given time
func (r *Repository) HasNotification(ctx context.Context, userID int64, reference string, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM finance.notifications
			WHERE user_id = $1 AND reference = $2 AND created_at >= $3
		)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, reference, since).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check notification: %w", err)
	}
	return exists, nil
}

// SaveNotification logs a delivered notification
func (r *Repository) SaveNotification(ctx context.Context, userID int64, n models.Notification) error {
	query := `
		INSERT INTO finance.notifications (id, user_id, title, message, type, priority, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)`
	_, err := r.db.ExecContext(ctx, query, uuid.NewString(), userID, n.Title, n.Message, n.Type, n.Priority, n.Reference)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}
