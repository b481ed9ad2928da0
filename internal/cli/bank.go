package cli

import (
	"github.com/spf13/cobra"
)

func newBankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Banking commands for an active game",
	}

	cmd.AddCommand(newBankDepositCmd())
	cmd.AddCommand(newBankWithdrawCmd())
	cmd.AddCommand(newBankTransferCmd())
	cmd.AddCommand(newBankCreditCmd())
	cmd.AddCommand(newBankRepayCmd())
	cmd.AddCommand(newBankTransactionsCmd())

	return cmd
}

func newBankDepositCmd() *cobra.Command {
	var (
		amount int64
		desc   string
	)

	cmd := &cobra.Command{
		Use:   "deposit <room-id>",
		Short: "Deposit into your account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"amount": amount, "description": desc}
			var result Transaction
			if err := client.Post("/api/v1/rooms/"+args[0]+"/bank/deposit", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().Int64Var(&amount, "amount", 0, "Amount to deposit (required)")
	cmd.Flags().StringVar(&desc, "desc", "", "Transaction description")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newBankWithdrawCmd() *cobra.Command {
	var (
		amount int64
		desc   string
	)

	cmd := &cobra.Command{
		Use:   "withdraw <room-id>",
		Short: "Withdraw from your account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"amount": amount, "description": desc}
			var result Transaction
			if err := client.Post("/api/v1/rooms/"+args[0]+"/bank/withdraw", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().Int64Var(&amount, "amount", 0, "Amount to withdraw (required)")
	cmd.Flags().StringVar(&desc, "desc", "", "Transaction description")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newBankTransferCmd() *cobra.Command {
	var (
		to     string
		amount int64
		desc   string
	)

	cmd := &cobra.Command{
		Use:   "transfer <room-id>",
		Short: "Transfer funds to another player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"to": to, "amount": amount, "description": desc}
			if err := client.Post("/api/v1/rooms/"+args[0]+"/bank/transfer", req, nil); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Transfer complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient player ID (required)")
	cmd.Flags().Int64Var(&amount, "amount", 0, "Amount to transfer (required)")
	cmd.Flags().StringVar(&desc, "desc", "", "Transaction description")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newBankCreditCmd() *cobra.Command {
	var (
		amount int64
		rate   int64
		term   int
	)

	cmd := &cobra.Command{
		Use:   "credit <room-id>",
		Short: "Take out a credit line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"amount": amount, "rate": rate, "term_months": term}
			var result CreditLine
			if err := client.Post("/api/v1/rooms/"+args[0]+"/bank/credit", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().Int64Var(&amount, "amount", 0, "Principal amount (required)")
	cmd.Flags().Int64Var(&rate, "rate", 0, "Monthly interest rate in percent")
	cmd.Flags().IntVar(&term, "term", 0, "Term in months (required)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("term")

	return cmd
}

func newBankRepayCmd() *cobra.Command {
	var (
		credit string
		amount int64
	)

	cmd := &cobra.Command{
		Use:   "repay <room-id>",
		Short: "Repay a credit line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"credit_id": credit, "amount": amount}
			var result Transaction
			if err := client.Post("/api/v1/rooms/"+args[0]+"/bank/repay", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&credit, "credit", "", "Credit line ID (required)")
	cmd.Flags().Int64Var(&amount, "amount", 0, "Amount to repay (required)")
	_ = cmd.MarkFlagRequired("credit")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newBankTransactionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transactions <room-id>",
		Short: "List your transaction history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result TransactionList
			if err := client.Get("/api/v1/rooms/"+args[0]+"/bank/transactions", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
