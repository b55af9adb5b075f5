package main

import (
	"github.com/pkg/errors"

	"github.com/shuleni/mahudhurio/core"
	"github.com/shuleni/mahudhurio/core/user"
)

// addUser creates a user.User with the requested roles.
func (cli *commandLine) addUser(name, uname, email, schoolID, pwd string, isAdmin, isTeacher bool) error {
	roles := make([]string, 0, len(user.AllRoles))
	if isAdmin {
		roles = user.AllRoles
	} else if isTeacher {
		roles = append(roles, user.RoleTeacher)
	}

	_, err := cli.usrSvc.Create(user.NewUser{
		Name:            core.CleanString(name),
		Username:        core.CleanString(uname, true /* lower */),
		Email:           core.CleanString(email, true /* lower */),
		SchoolID:        schoolID,
		Password:        pwd,
		PasswordConfirm: pwd,
		Roles:           roles,
	})
	return errors.Wrap(err, "creating user")
}
