// Package user persists accounts and their owner profiles.
package user

import "rentmeroom/internal/identity/models"

func clone(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Owner != nil {
		o := *u.Owner
		if o.ProfileImage != nil {
			img := *o.ProfileImage
			o.ProfileImage = &img
		}
		c.Owner = &o
	}
	return &c
}
