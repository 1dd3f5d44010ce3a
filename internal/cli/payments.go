package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"text/tabwriter"

	"nexusglobal/internal/nexus"
)

// PaymentsCmd группирует команды платежей.
type PaymentsCmd struct {
	List   PaymentsListCmd   `command:"list" description:"List payments"`
	Create PaymentsCreateCmd `command:"create" description:"Submit a payment with voucher images"`
}

// PaymentsListCmd печатает платежи.
type PaymentsListCmd struct {
	Status string `long:"status" description:"filter by status"`
	Page   int    `long:"page" default:"1" description:"page number"`
	Limit  int    `long:"limit" default:"10" description:"page size"`

	app *App
}

// Execute печатает платежи таблицей.
func (c *PaymentsListCmd) Execute(_ []string) error {
	a := c.app
	if _, err := a.restore(); err != nil {
		return err
	}

	page, err := a.api.Payments.List(a.ctx, nexus.PaymentFilter{
		Status:    c.Status,
		PageQuery: nexus.PageQuery{Page: c.Page, Limit: c.Limit},
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAMOUNT\tMETHOD\tSTATUS\tCREATED")
	for _, p := range page.Results {
		fmt.Fprintf(w, "%d\t%.2f\t%s\t%s\t%s\n", p.ID, p.Amount, p.PaymentMethod, p.Status, p.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

// PaymentsCreateCmd отправляет платеж с изображениями ваучеров.
type PaymentsCreateCmd struct {
	ConfigID      int      `long:"config" required:"true" description:"payment configuration id"`
	Amount        float64  `long:"amount" required:"true" description:"paid amount"`
	Method        string   `long:"method" default:"VOUCHER" description:"payment method"`
	OperationCode string   `long:"operation" description:"bank operation code"`
	Bank          string   `long:"bank" description:"bank name"`
	Notes         string   `long:"notes" description:"notes for the reviewer"`
	Vouchers      []string `long:"voucher" required:"true" description:"voucher image file, repeatable"`

	app *App
}

// Execute открывает файлы ваучеров и отправляет платеж одним multipart запросом.
func (c *PaymentsCreateCmd) Execute(_ []string) error {
	a := c.app
	if _, err := a.restore(); err != nil {
		return err
	}

	vouchers := make([]nexus.Voucher, 0, len(c.Vouchers))
	for _, path := range c.Vouchers {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening voucher: %w", err)
		}
		defer f.Close()

		vouchers = append(vouchers, nexus.Voucher{
			Name:        filepath.Base(path),
			ContentType: mime.TypeByExtension(filepath.Ext(path)),
			Content:     f,
		})
	}

	p, err := a.api.Payments.Create(a.ctx, nexus.CreatePayment{
		PaymentConfigID: c.ConfigID,
		Amount:          c.Amount,
		PaymentMethod:   c.Method,
		OperationCode:   c.OperationCode,
		BankName:        c.Bank,
		Notes:           c.Notes,
	}, vouchers...)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "payment %d submitted: %.2f (%s)\n", p.ID, p.Amount, p.Status)
	return nil
}
