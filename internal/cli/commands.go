package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"nexusglobal/internal/nexus"
	"nexusglobal/internal/session"
)

// LoginCmd входит по email и паролю и сохраняет сессию.
type LoginCmd struct {
	Email    string `short:"e" long:"email" required:"true" description:"account email"`
	Password string `long:"password" env:"NEXUSCTL_PASSWORD" description:"password, prompted when empty"`

	app *App
}

// Execute выполняет вход.
func (c *LoginCmd) Execute(_ []string) error {
	a := c.app

	password := c.Password
	if password == "" {
		var err error
		if password, err = promptPassword(int(a.stdin.Fd()), a.errOut); err != nil {
			return err
		}
	}

	res, err := a.api.Auth.Login(a.ctx, c.Email, password)
	if err != nil {
		return err
	}

	s, err := session.New(res.User, res.Credentials())
	if err != nil {
		return err
	}
	if err := a.source.SignIn(a.ctx, s); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	fmt.Fprintf(a.out, "Signed in as %s\n", s.User().Email)
	return nil
}

// LogoutCmd отзывает токен обновления и удаляет файл сессии.
type LogoutCmd struct {
	app *App
}

// Execute выполняет выход. Ошибка бэкенда не мешает удалить локальную сессию.
func (c *LogoutCmd) Execute(_ []string) error {
	a := c.app

	s, err := a.restore()
	if errors.Is(err, session.ErrNoSession) {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}
	if err != nil {
		return err
	}

	// Источник без хука выхода: 401 при явном выходе не требует подсказки о входе.
	if s.Active() {
		auth := nexus.NewAuthService(a.base.WithTokens(session.NewServerSource(s)))
		if err := auth.Logout(a.ctx, s.Credentials().RefreshToken); err != nil {
			fmt.Fprintf(a.errOut, "warning: backend logout failed: %s\n", describe(err))
		}
	}
	if err := a.source.SignOut(a.ctx); err != nil {
		return fmt.Errorf("removing session: %w", err)
	}

	fmt.Fprintln(a.out, "Signed out")
	return nil
}

// WhoamiCmd печатает профиль пользователя.
type WhoamiCmd struct {
	app *App
}

// Execute загружает профиль.
func (c *WhoamiCmd) Execute(_ []string) error {
	a := c.app
	if _, err := a.restore(); err != nil {
		return err
	}

	user, err := a.api.Auth.Profile(a.ctx)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	fmt.Fprintf(a.out, "%s <%s>\n", name, user.Email)
	if user.Role.Name != "" {
		fmt.Fprintf(a.out, "role: %s\n", user.Role.Name)
	}
	return nil
}

// TeamCmd ищет партнеров в дереве пользователя.
type TeamCmd struct {
	Search string `short:"s" long:"search" description:"name or email filter"`
	Page   int    `long:"page" default:"1" description:"page number"`
	Limit  int    `long:"limit" default:"20" description:"page size"`

	app *App
}

// Execute печатает найденных партнеров таблицей.
func (c *TeamCmd) Execute(_ []string) error {
	a := c.app
	if _, err := a.restore(); err != nil {
		return err
	}

	page, err := a.api.Team.SearchTree(a.ctx, nexus.TreeSearch{
		Search:    c.Search,
		PageQuery: nexus.PageQuery{Page: c.Page, Limit: c.Limit},
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tNAME\tPOSITION\tDEPTH\tRANK")
	for _, u := range page.Results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			u.Email, strings.TrimSpace(u.FirstName+" "+u.LastName), u.Position, u.Depth, u.Rank)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "page %d of %d, %d total\n", page.Metadata.Page, page.Metadata.TotalPages, page.Metadata.Total)
	return nil
}

// PointsCmd печатает очки и прогресс ранга.
type PointsCmd struct {
	app *App
}

// Execute загружает очки и ранг.
func (c *PointsCmd) Execute(_ []string) error {
	a := c.app
	if _, err := a.restore(); err != nil {
		return err
	}

	points, err := a.api.Points.Summary(a.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "left: %.2f  right: %.2f  available: %.2f\n",
		points.LeftPoints, points.RightPoints, points.AvailablePoints)

	ranks, err := a.api.Points.Ranks(a.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "rank: %s", ranks.CurrentRank.Name)
	if ranks.NextRank != nil {
		fmt.Fprintf(a.out, " (%.0f%% to %s)", ranks.ProgressPercent, ranks.NextRank.Name)
	}
	fmt.Fprintln(a.out)
	return nil
}

// WithdrawalsCmd печатает заявки на вывод или создает новую.
type WithdrawalsCmd struct {
	Status string  `long:"status" description:"filter by status"`
	Amount float64 `long:"request" description:"request a withdrawal of this amount"`
	Reason string  `long:"reason" description:"reason for the new withdrawal"`

	app *App
}

// Execute выполняет команду.
func (c *WithdrawalsCmd) Execute(_ []string) error {
	a := c.app
	if _, err := a.restore(); err != nil {
		return err
	}

	if c.Amount != 0 {
		w, err := a.api.Withdrawals.Create(a.ctx, c.Amount, c.Reason)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "withdrawal %d requested: %.2f (%s)\n", w.ID, w.Amount, w.Status)
		return nil
	}

	page, err := a.api.Withdrawals.List(a.ctx, nexus.WithdrawalFilter{Status: c.Status})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAMOUNT\tSTATUS\tCREATED")
	for _, item := range page.Results {
		fmt.Fprintf(w, "%d\t%.2f\t%s\t%s\n", item.ID, item.Amount, item.Status, item.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}
