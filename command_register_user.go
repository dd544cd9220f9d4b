package memberauth

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// DefaultVerifyTokenTTL is how long a verification link stays usable.
var DefaultVerifyTokenTTL = 48 * time.Hour

type RegisterUserMessage struct {
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	Password  string         `json:"password"`
	Tier      MembershipTier `json:"membership_tier"`
	UseHashid bool

	// OnRegistered receives the created record, before the verification
	// email goes out.
	OnRegistered func(user *User)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserHandler creates a new account: password strength check, hash,
// insert, and an email verification token handed to the mailer.
type RegisterUserHandler struct {
	repo        RepositoryManager
	tokens      TokenIssuer
	mailer      Mailer
	featureGate gate.FeatureGate
	verifyTTL   time.Duration
	logger      Logger
}

func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:      repo,
		verifyTTL: DefaultVerifyTokenTTL,
		logger:    defLogger{},
	}
}

// WithFeatureGate makes signups conditional on the signup feature flag.
func (h *RegisterUserHandler) WithFeatureGate(featureGate gate.FeatureGate) *RegisterUserHandler {
	h.featureGate = featureGate
	return h
}

// WithVerificationMailer wires the token issuer and mailer used to send the
// verification link after a successful insert.
func (h *RegisterUserHandler) WithVerificationMailer(tokens TokenIssuer, mailer Mailer) *RegisterUserHandler {
	h.tokens = tokens
	h.mailer = mailer
	return h
}

func (h *RegisterUserHandler) WithVerifyTokenTTL(ttl time.Duration) *RegisterUserHandler {
	if ttl > 0 {
		h.verifyTTL = ttl
	}
	return h
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	h.logger = logger
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	if h.featureGate != nil {
		if err := requireFeatureGate(ctx, h.featureGate, gate.FeatureUsersSignup, ErrSignupDisabled); err != nil {
			return err
		}
	}

	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.Username = getUsername(event.Username, event.Email)
		user.Tier = event.Tier
		user.IsActive = true
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	if event.OnRegistered != nil {
		event.OnRegistered(user)
	}

	h.sendVerificationEmail(ctx, user)

	return nil
}

// sendVerificationEmail is best effort, the account exists either way and
// the link can be re-requested.
func (h *RegisterUserHandler) sendVerificationEmail(ctx context.Context, user *User) {
	if h.tokens == nil || h.mailer == nil {
		return
	}

	token, err := h.tokens.Issue(user.ID.String(), TokenTypeVerifyEmail, h.verifyTTL)
	if err != nil {
		h.logger.Error("failed to mint verification token", "error", err, "user_id", user.ID.String())
		return
	}

	if err := h.mailer.SendVerificationEmail(ctx, user, token); err != nil {
		h.logger.Error("failed to send verification email", "error", err, "user_id", user.ID.String())
	}
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
