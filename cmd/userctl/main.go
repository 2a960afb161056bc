package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// userInput payload de create/update armado desde flags.
type userInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	IsActive  *bool  `json:"isActive,omitempty"`
}

func newRootCmd(cl *client) *cobra.Command {
	root := &cobra.Command{
		Use:           "userctl",
		Short:         "CLI para la API de usuarios",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cl.BaseURL, "url", cl.BaseURL, "URL base de la API (env USERSVC_URL)")
	root.PersistentFlags().StringVar(&cl.OutFormat, "out", cl.OutFormat, "Formato de salida: json|text")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lista todos los usuarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodGet, "/users", nil)
		},
	}

	activeCmd := &cobra.Command{
		Use:   "active",
		Short: "Lista los usuarios activos",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodGet, "/users/active", nil)
		},
	}

	var pageSize int
	var pageToken string
	pageCmd := &cobra.Command{
		Use:   "page",
		Short: "Trae una página de usuarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodGet, pagePath(pageSize, pageToken), nil)
		},
	}
	pageCmd.Flags().IntVar(&pageSize, "size", 0, "Tamaño de página (default del servidor)")
	pageCmd.Flags().StringVar(&pageToken, "token", "", "Continuation token de la página anterior")

	countCmd := &cobra.Command{
		Use:   "count",
		Short: "Cuenta los usuarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodGet, "/users/count", nil)
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Obtiene un usuario por id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodGet, userPath(args[0]), nil)
		},
	}

	byEmailCmd := &cobra.Command{
		Use:   "get-by-email <email>",
		Short: "Obtiene un usuario por email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodGet, "/users/email/"+args[0], nil)
		},
	}

	var in userInput
	var active, inactive bool
	payload := func() (*userInput, error) {
		if active && inactive {
			return nil, fmt.Errorf("--active y --inactive son excluyentes")
		}
		p := in
		switch {
		case active:
			p.IsActive = boolPtr(true)
		case inactive:
			p.IsActive = boolPtr(false)
		}
		return &p, nil
	}
	addUserFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&in.FirstName, "first-name", "", "Nombre")
		c.Flags().StringVar(&in.LastName, "last-name", "", "Apellido")
		c.Flags().StringVar(&in.Email, "email", "", "Email")
		c.Flags().BoolVar(&active, "active", false, "Marca el usuario como activo")
		c.Flags().BoolVar(&inactive, "inactive", false, "Marca el usuario como inactivo")
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Crea un usuario",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := payload()
			if err != nil {
				return err
			}
			return cl.call(http.MethodPost, "/users", p)
		},
	}
	addUserFlags(createCmd)

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Actualiza un usuario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := payload()
			if err != nil {
				return err
			}
			return cl.call(http.MethodPut, userPath(args[0]), p)
		},
	}
	addUserFlags(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Elimina un usuario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodDelete, userPath(args[0]), nil)
		},
	}

	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Consulta /readyz",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodGet, "/readyz", nil)
		},
	}

	root.AddCommand(listCmd, activeCmd, pageCmd, countCmd, getCmd, byEmailCmd,
		createCmd, updateCmd, deleteCmd, pingCmd)
	return root
}

func boolPtr(b bool) *bool { return &b }

func main() {
	cl := &client{
		BaseURL:   envOr("USERSVC_URL", "http://localhost:8080"),
		OutFormat: envOr("USERSVC_OUT", "text"),
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		Out:       os.Stdout,
	}
	if err := newRootCmd(cl).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
