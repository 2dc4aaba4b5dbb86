package permission

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physiocapture/physiocapture/internal/platform/auth"
)

// grantTable mirrors the policy: for each action, which roles are granted.
// Order: ADMIN, MANAGER, PHYSIOTHERAPIST, RECEPTIONIST.
var grantTable = map[Action][4]bool{
	ManageUsers:          {true, false, false, false},
	ViewAllPatients:      {true, true, false, true},
	CreatePatient:        {true, true, true, true},
	EditPatient:          {true, true, true, true},
	DeletePatient:        {true, true, false, false},
	AssignPatient:        {true, true, false, true},
	CreateConsultation:   {true, true, true, false},
	ViewAllConsultations: {true, true, false, false},
	UploadDocument:       {true, true, true, true},
	DeleteDocument:       {true, true, false, false},
	ManageClinicSettings: {true, false, false, false},
	ViewReports:          {true, true, false, false},
}

var roleOrder = [4]auth.Role{
	auth.RoleAdmin, auth.RoleManager, auth.RolePhysiotherapist, auth.RoleReceptionist,
}

func TestCanMatchesGrantTable(t *testing.T) {
	require.Len(t, grantTable, len(Actions), "grant table must cover every action")
	for action, grants := range grantTable {
		for i, role := range roleOrder {
			assert.Equal(t, grants[i], Can(role, action),
				fmt.Sprintf("Can(%s, %s)", role, action))
		}
	}
}

func TestCanUnknownRoleDeniesAll(t *testing.T) {
	for _, action := range Actions {
		assert.False(t, Can(auth.Role("INTRUDER"), action), string(action))
	}
}

func TestRowScopePhysiotherapist(t *testing.T) {
	therapist := uuid.New()
	scope := RowScope(auth.RolePhysiotherapist, therapist)

	if scope.Unrestricted() {
		t.Fatal("physiotherapist scope must be restricted")
	}
	if !scope.Allows(&therapist) {
		t.Error("own patient should be in scope")
	}
	other := uuid.New()
	if scope.Allows(&other) {
		t.Error("patient assigned elsewhere must be out of scope")
	}
	if scope.Allows(nil) {
		t.Error("unassigned patient must be out of scope")
	}
}

func TestRowScopeOtherRolesUnrestricted(t *testing.T) {
	for _, role := range []auth.Role{auth.RoleAdmin, auth.RoleManager, auth.RoleReceptionist} {
		scope := RowScope(role, uuid.New())
		if !scope.Unrestricted() {
			t.Errorf("%s scope should be unrestricted", role)
		}
		if !scope.Allows(nil) {
			t.Errorf("%s should see unassigned patients", role)
		}
	}
}
