package validation

import "tiffin/internal/models"

// UserUpsert is sent on the identity exchange. The identity subject always
// comes from the verified credential; FirebaseUID is only cross-checked.
type UserUpsert struct {
	FirebaseUID string `json:"firebaseUid,omitempty"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Name        string `json:"name,omitempty" validate:"omitempty,max=100"`
}

// UserUpsert decodes and validates an identity exchange payload. An empty
// body is allowed since everything may come from the credential.
func (v *Validator) UserUpsert(body []byte) (*UserUpsert, error) {
	var in UserUpsert
	if len(body) == 0 {
		return &in, nil
	}
	if err := v.decode(body, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// PreferencesInput updates dietary preferences.
type PreferencesInput struct {
	Dietary    []string `json:"dietary,omitempty" validate:"omitempty,dive,required"`
	SpiceLevel *string  `json:"spiceLevel,omitempty" validate:"omitnil,oneof=mild medium spicy"`
}

// UserUpdate is the self-service profile update. Role, email and
// subscription are deliberately absent.
type UserUpdate struct {
	Name        *string           `json:"name,omitempty" validate:"omitnil,min=1,max=100"`
	Phone       *string           `json:"phone,omitempty" validate:"omitnil,min=5,max=20"`
	Address     *models.Address   `json:"address,omitempty"`
	Preferences *PreferencesInput `json:"preferences,omitempty"`
}

// UserUpdate decodes and validates a profile update.
func (v *Validator) UserUpdate(body []byte) (*UserUpdate, error) {
	var in UserUpdate
	if err := v.decode(body, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// Apply merges the present fields into u.
func (in *UserUpdate) Apply(u *models.User) {
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Phone != nil {
		u.Phone = *in.Phone
	}
	if in.Address != nil {
		u.Address = *in.Address
	}
	if p := in.Preferences; p != nil {
		if p.Dietary != nil {
			u.Preferences.Dietary = dedupe(p.Dietary)
		}
		if p.SpiceLevel != nil {
			u.Preferences.SpiceLevel = *p.SpiceLevel
		}
	}
}
