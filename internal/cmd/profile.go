package cmd

import (
	"github.com/pixelfolio/cli/pkg/service"
	"github.com/spf13/cobra"
)

var profileUpdate service.ProfileUpdate

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "View and edit your account",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewProfileService(service.DefaultDeps())
		return svc.Show(cmd.Context())
	},
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Edit your profile",
	Long:  "Edit your name, email, bio or profile image. Without flags every field is prompted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewProfileService(service.DefaultDeps())
		return svc.Update(cmd.Context(), profileUpdate)
	},
}

var profilePasswordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change your password",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewProfileService(service.DefaultDeps())
		return svc.ChangePassword(cmd.Context())
	},
}

func init() {
	profileUpdateCmd.Flags().StringVar(&profileUpdate.Name, "name", "", "New display name")
	profileUpdateCmd.Flags().StringVar(&profileUpdate.Email, "email", "", "New email")
	profileUpdateCmd.Flags().StringVar(&profileUpdate.Bio, "bio", "", "New bio")
	profileUpdateCmd.Flags().StringVar(&profileUpdate.AvatarPath, "avatar", "", "Profile image file to upload")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileUpdateCmd)
	profileCmd.AddCommand(profilePasswordCmd)
}
