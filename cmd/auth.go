package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/worker-finder/internal/marketplace"
	"github.com/spigell/worker-finder/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the marketplace",
	Run: func(cmd *cobra.Command, _ []string) {
		email, err := ask("Email", flagString(cmd, "email"), false)
		if err != nil {
			fail("reading email", err)
		}
		password, err := ask("Password", flagString(cmd, "password"), true)
		if err != nil {
			fail("reading password", err)
		}

		resp, err := rt.client.Login(rt.ctx, marketplace.Credentials{Email: email, Password: password})
		if err != nil {
			fail("login failed", err)
		}

		saveSession(resp)
		rt.bus.Success("Welcome back, " + resp.Name + "!")
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a customer or worker account",
	Run: func(cmd *cobra.Command, _ []string) {
		base := marketplace.SignupRequest{}
		var err error

		if base.Name, err = ask("Name", flagString(cmd, "name"), false); err != nil {
			fail("reading name", err)
		}
		if base.Email, err = ask("Email", flagString(cmd, "email"), false); err != nil {
			fail("reading email", err)
		}
		if base.Password, err = ask("Password", flagString(cmd, "password"), true); err != nil {
			fail("reading password", err)
		}

		var resp *marketplace.AuthResponse
		if worker, _ := cmd.Flags().GetBool("worker"); worker {
			resp, err = workerSignup(cmd, base)
		} else {
			resp, err = rt.client.Signup(rt.ctx, base)
		}
		if err != nil {
			fail("signup failed", err)
		}

		saveSession(resp)
		rt.bus.Success("Account created for " + resp.Name)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Run: func(_ *cobra.Command, _ []string) {
		if err := rt.sessions.Clear(rt.ctx); err != nil {
			fail("logout failed", err)
		}
		rt.logger.Info("signed out")
		rt.bus.Info("Signed out")
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd)

	for _, c := range []*cobra.Command{loginCmd, signupCmd} {
		c.Flags().String("email", "", "account email")
		c.Flags().String("password", "", "account password (prompted when empty)")
	}

	signupCmd.Flags().String("name", "", "full name")
	signupCmd.Flags().Bool("worker", false, "register as a worker listed in the catalog")
	signupCmd.Flags().String("profession", "", "worker profession")
	signupCmd.Flags().String("location", "", "worker location")
	signupCmd.Flags().Float64("charges", 0, "worker charges per day")
	signupCmd.Flags().String("contact", "", "worker contact phone")
}

func workerSignup(cmd *cobra.Command, base marketplace.SignupRequest) (*marketplace.AuthResponse, error) {
	req := marketplace.WorkerSignupRequest{SignupRequest: base}

	req.Profession = flagString(cmd, "profession")
	if req.Profession == "" {
		profession, err := choose("Profession", marketplace.Professions)
		if err != nil {
			return nil, err
		}
		req.Profession = profession
	}

	var err error
	if req.Location, err = ask("Location", flagString(cmd, "location"), false); err != nil {
		return nil, err
	}
	if req.Contact, err = ask("Contact", flagString(cmd, "contact"), false); err != nil {
		return nil, err
	}

	req.Charges, _ = cmd.Flags().GetFloat64("charges")
	if req.Charges <= 0 {
		charges, err := askInt("Charges per day", 0, 1, 100000)
		if err != nil {
			return nil, err
		}
		req.Charges = float64(charges)
	}

	return rt.client.WorkerSignup(rt.ctx, req)
}

func saveSession(resp *marketplace.AuthResponse) {
	sess := session.FromAuth(resp)
	if err := rt.sessions.Save(rt.ctx, sess); err != nil {
		fail("saving session", err)
	}
	rt.session = sess
	rt.client = rt.client.WithToken(sess.Token)
	switchUser(sess.User.ID)

	rt.logger.Info("signed in",
		zap.String("name", sess.User.Name),
		zap.String("role", sess.User.Role),
	)
}

func flagString(cmd *cobra.Command, name string) string {
	value, _ := cmd.Flags().GetString(name)
	return value
}
