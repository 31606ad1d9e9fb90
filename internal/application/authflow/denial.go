package authflow

// Public messages. Within one operation the ambiguous message is
// byte-identical across every failure branch, so nothing can be inferred
// from the body.
const (
	MsgInvalidCredentials = "Invalid credentials"
	MsgInvalidToken       = "Invalid token"
	MsgResetRequested     = "A link to reset your password will be sent to your email address if an account exists"
)

// Denial is a deliberate security refusal. Reason is the internal
// discriminant, used only for logging and metrics; Public is the client
// message. They are separate fields on purpose: the public message is never
// derived from the internal one.
type Denial struct {
	Reason string
	Public string
}

func (d *Denial) Error() string { return d.Reason }

func deny(reason, public string) *Denial {
	return &Denial{Reason: reason, Public: public}
}
