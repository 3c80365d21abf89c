package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"cvforge/internal/auth"
	"cvforge/internal/database"
)

func newUserCmd(flags *dbFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "账号管理"}

	var (
		username string
		email    string
		admin    bool
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "创建账号并生成一次性初始密码（首次登录需强制改密）",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := flags.open()
			if err != nil {
				return err
			}
			return createUser(cmd.OutOrStdout(), db, username, email, admin)
		},
	}
	create.Flags().StringVar(&username, "username", "", "用户名（必填）")
	create.Flags().StringVar(&email, "email", "", "邮箱（必填）")
	create.Flags().BoolVar(&admin, "admin", false, "授予管理员角色")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("email")

	cmd.AddCommand(create)
	return cmd
}

func createUser(out io.Writer, db *gorm.DB, username, email string, admin bool) error {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" {
		return errors.New("username and email are required")
	}

	var existing database.User
	switch err := db.Where("username = ? OR email = ?", username, email).First(&existing).Error; {
	case err == nil:
		return fmt.Errorf("user %q or email %q already exists", username, email)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return fmt.Errorf("query user: %w", err)
	}

	password, err := generateRandomPassword(24)
	if err != nil {
		return fmt.Errorf("generate password: %w", err)
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	role := database.RoleUser
	if admin {
		role = database.RoleAdmin
	}
	user := database.User{
		Username:           username,
		Email:              email,
		PasswordHash:       hashed,
		Role:               role,
		MustChangePassword: true,
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(out, "已创建账号（首次登录需强制改密）：\n")
	fmt.Fprintf(out, "ID: %d\n", user.ID)
	fmt.Fprintf(out, "用户名: %s\n", user.Username)
	fmt.Fprintf(out, "角色: %s\n", user.Role)
	fmt.Fprintf(out, "初始密码: %s\n", password)
	fmt.Fprintf(out, "提示：请立即登录并修改密码（该密码仅显示一次）。\n")
	return nil
}
