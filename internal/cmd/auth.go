package cmd

import (
	"github.com/pixelfolio/cli/pkg/service"
	"github.com/spf13/cobra"
)

var (
	authEmail  string
	authName   string
	authAvatar string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  "Create an account, verify your email and manage your Pixelfolio session",
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a new Pixelfolio account",
	Long:  "Register a new account. A verification code is emailed to you.",
	RunE: func(cmd *cobra.Command, args []string) error {
		authSvc := service.NewAuthService(service.DefaultDeps())
		return authSvc.Signup(cmd.Context(), service.SignupOptions{
			Name:       authName,
			Email:      authEmail,
			AvatarPath: authAvatar,
		})
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify your email with the emailed code",
	RunE: func(cmd *cobra.Command, args []string) error {
		authSvc := service.NewAuthService(service.DefaultDeps())
		return authSvc.Verify(cmd.Context(), authEmail)
	},
}

var resendOTPCmd = &cobra.Command{
	Use:   "resend-otp",
	Short: "Send a new verification code",
	RunE: func(cmd *cobra.Command, args []string) error {
		authSvc := service.NewAuthService(service.DefaultDeps())
		return authSvc.ResendOTP(cmd.Context(), authEmail)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to Pixelfolio",
	RunE: func(cmd *cobra.Command, args []string) error {
		authSvc := service.NewAuthService(service.DefaultDeps())
		return authSvc.Login(cmd.Context(), authEmail)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from Pixelfolio",
	RunE: func(cmd *cobra.Command, args []string) error {
		authSvc := service.NewAuthService(service.DefaultDeps())
		return authSvc.Logout()
	},
}

var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Aliases: []string{"me"},
	Short:   "Display current authenticated user",
	RunE: func(cmd *cobra.Command, args []string) error {
		authSvc := service.NewAuthService(service.DefaultDeps())
		return authSvc.WhoAmI(cmd.Context())
	},
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Request a password reset code",
	RunE: func(cmd *cobra.Command, args []string) error {
		authSvc := service.NewAuthService(service.DefaultDeps())
		return authSvc.ForgotPassword(cmd.Context(), authEmail)
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password with the emailed reset code",
	RunE: func(cmd *cobra.Command, args []string) error {
		authSvc := service.NewAuthService(service.DefaultDeps())
		return authSvc.ResetPassword(cmd.Context(), authEmail)
	},
}

func init() {
	for _, c := range []*cobra.Command{signupCmd, verifyCmd, resendOTPCmd, loginCmd, forgotPasswordCmd, resetPasswordCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "Account email (prompted if omitted)")
	}
	signupCmd.Flags().StringVar(&authName, "name", "", "Display name (prompted if omitted)")
	signupCmd.Flags().StringVar(&authAvatar, "avatar", "", "Profile image file to upload")

	authCmd.AddCommand(signupCmd)
	authCmd.AddCommand(verifyCmd)
	authCmd.AddCommand(resendOTPCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(whoamiCmd)
	authCmd.AddCommand(forgotPasswordCmd)
	authCmd.AddCommand(resetPasswordCmd)
}
