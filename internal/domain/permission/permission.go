// Package permission holds the role policy table and row-scope rules. Pure
// functions, no I/O; services consult it before touching the repositories.
package permission

import (
	"github.com/google/uuid"

	"github.com/physiocapture/physiocapture/internal/platform/auth"
)

// Action is a policy-gated operation.
type Action string

const (
	ManageUsers          Action = "manageUsers"
	ViewAllPatients      Action = "viewAllPatients"
	CreatePatient        Action = "createPatient"
	EditPatient          Action = "editPatient"
	DeletePatient        Action = "deletePatient"
	AssignPatient        Action = "assignPatient"
	CreateConsultation   Action = "createConsultation"
	ViewAllConsultations Action = "viewAllConsultations"
	UploadDocument       Action = "uploadDocument"
	DeleteDocument       Action = "deleteDocument"
	ManageClinicSettings Action = "manageClinicSettings"
	ViewReports          Action = "viewReports"
)

// Actions lists every gated action.
var Actions = []Action{
	ManageUsers, ViewAllPatients, CreatePatient, EditPatient, DeletePatient,
	AssignPatient, CreateConsultation, ViewAllConsultations, UploadDocument,
	DeleteDocument, ManageClinicSettings, ViewReports,
}

// policy is the role/action grant table. PHYSIOTHERAPIST grants are further
// narrowed by Scope: editPatient means "own patients only".
var policy = map[auth.Role]map[Action]bool{
	auth.RoleAdmin: {
		ManageUsers: true, ViewAllPatients: true, CreatePatient: true,
		EditPatient: true, DeletePatient: true, AssignPatient: true,
		CreateConsultation: true, ViewAllConsultations: true,
		UploadDocument: true, DeleteDocument: true,
		ManageClinicSettings: true, ViewReports: true,
	},
	auth.RoleManager: {
		ViewAllPatients: true, CreatePatient: true, EditPatient: true,
		DeletePatient: true, AssignPatient: true,
		CreateConsultation: true, ViewAllConsultations: true,
		UploadDocument: true, DeleteDocument: true, ViewReports: true,
	},
	auth.RolePhysiotherapist: {
		CreatePatient: true, EditPatient: true,
		CreateConsultation: true, UploadDocument: true,
	},
	auth.RoleReceptionist: {
		ViewAllPatients: true, CreatePatient: true, EditPatient: true,
		AssignPatient: true, UploadDocument: true,
	},
}

// Can reports whether role may perform action.
func Can(role auth.Role, action Action) bool {
	return policy[role][action]
}

// Scope narrows which patient rows a principal may touch on top of the
// clinic filter.
type Scope struct {
	// TherapistID, when set, restricts queries to patients whose
	// assigned_therapist_id equals it.
	TherapistID *uuid.UUID
}

// Unrestricted reports whether the scope imposes no row filter.
func (s Scope) Unrestricted() bool { return s.TherapistID == nil }

// Allows reports whether a patient row with the given assigned therapist is
// inside the scope.
func (s Scope) Allows(assignedTherapistID *uuid.UUID) bool {
	if s.TherapistID == nil {
		return true
	}
	return assignedTherapistID != nil && *assignedTherapistID == *s.TherapistID
}

// RowScope returns the row filter for a principal. PHYSIOTHERAPISTs see only
// patients assigned to them; every other role sees the whole clinic.
func RowScope(role auth.Role, userID uuid.UUID) Scope {
	if role == auth.RolePhysiotherapist {
		id := userID
		return Scope{TherapistID: &id}
	}
	return Scope{}
}
