package extract

import (
	"testing"

	"github.com/mtlprog/finagent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Operation
	}{
		{"Add a new customer John Smith", OpCreate},
		{"Register user Ann Lee", OpCreate},
		{"Change the address of customer 4", OpUpdate},
		{"Edit customer 9", OpUpdate},
		{"Update customer 3 with a new email a@b.com", OpUpdate},
		{"Delete customer 12", OpDelete},
		{"Deactivate customer 12", OpDelete},
		{"Remove the new customer", OpDelete},
		{"Update then delete customer 1", OpUpdate},
		{"Show balances", OpUnknown},
		{"", OpUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestMentionsCustomer(t *testing.T) {
	assert.True(t, MentionsCustomer("Create a Customer named Bo Li"))
	assert.True(t, MentionsCustomer("add user"))
	assert.True(t, MentionsCustomer("register new client"))
	assert.False(t, MentionsCustomer("create an account"))
}

func TestUpdateTarget(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   Target
		wantOK bool
	}{
		{"customer id", "Update customer 14, change email to a@b.com", Target{ID: 14}, true},
		{"customer id keyword", "Update customer id 22 phone to 555-0101", Target{ID: 22}, true},
		{"customer hash id", "Update customer #17 email to x@y.co", Target{ID: 17}, true},
		{"digits in email are not an id", "Update Jane Doe's email to id7@bank.com", Target{FirstName: "Jane", LastName: "Doe"}, true},
		{"apartment number is not an id", "Change Mary Jones phone to 555-0101, she lives in apartment #3", Target{FirstName: "Mary", LastName: "Jones"}, true},
		{"bare id is not an id", "Change phone to 555-0000 for ID: 42", Target{}, false},
		{"possessive name", "Update John Smith's phone to 555-1234", Target{FirstName: "John", LastName: "Smith"}, true},
		{"customer name", "Change customer Jane Doe's last name to Smith", Target{FirstName: "Jane", LastName: "Doe"}, true},
		{"named", "For the person named Ann Lee, modify email to ann@lee.io", Target{FirstName: "Ann", LastName: "Lee"}, true},
		{"first word stoplist falls through", "Change email of customer Mary Jones to mary@x.com", Target{FirstName: "Mary", LastName: "Jones"}, true},
		{"last name is not a person", "Update last name of Jane Doe to Smith", Target{}, false},
		{"second word stoplist", "Modify Jane Email to jane@x.io", Target{}, false},
		{"nothing", "Update email to a@b.com", Target{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := UpdateTarget(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeleteTarget(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   Target
		wantOK bool
	}{
		{"customer id", "Delete customer 7", Target{ID: 7}, true},
		{"id beats name", "Delete customer 8 named Ann Lee", Target{ID: 8}, true},
		{"name after verb", "Remove John Smith", Target{FirstName: "John", LastName: "Smith"}, true},
		{"ticket number is not an id", "Delete John Smith as requested in ticket #4521", Target{FirstName: "John", LastName: "Smith"}, true},
		{"customer keyword skipped", "Delete customer Bob Stone", Target{FirstName: "Bob", LastName: "Stone"}, true},
		{"customer pattern", "Customer Ann Lee should be removed", Target{FirstName: "Ann", LastName: "Lee"}, true},
		{"nothing", "Delete it", Target{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DeleteTarget(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldChanges(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Change
	}{
		{
			"email",
			"Update customer 14, change email to a@b.com",
			[]Change{{domain.FieldEmail, "a@b.com"}},
		},
		{
			"last name with of clause",
			"Update last name of Jane Doe to Smith",
			[]Change{{domain.FieldLastName, "Smith"}},
		},
		{
			"first name",
			"Update customer 5 first name to Robert",
			[]Change{{domain.FieldFirstName, "Robert"}},
		},
		{
			"phone with number keyword",
			"Change phone number to 206-555-0199 for customer 3",
			[]Change{{domain.FieldPhone, "206-555-0199"}},
		},
		{
			"tier and branch",
			"Update customer 3 tier to VIP and branch Airport",
			[]Change{{domain.FieldTier, "vip"}, {domain.FieldBranch, "airport"}},
		},
		{
			"several fields in fixed order",
			"Change customer 2 phone to 555-1111, email to new@bank.com, lastname to Brown",
			[]Change{
				{domain.FieldEmail, "new@bank.com"},
				{domain.FieldLastName, "Brown"},
				{domain.FieldPhone, "555-1111"},
			},
		},
		{
			"name words without a name change",
			"Update the name on customer 4",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FieldChanges(tt.text))
		})
	}
}

func TestExtract(t *testing.T) {
	ex := Extract("Update customer 14, change email to a@b.com")
	assert.Equal(t, OpUpdate, ex.Operation)
	require.NotNil(t, ex.Target)
	assert.Equal(t, int64(14), ex.Target.ID)
	assert.Equal(t, []Change{{domain.FieldEmail, "a@b.com"}}, ex.Changes)

	ex = Extract("Delete customer Bob Stone")
	assert.Equal(t, OpDelete, ex.Operation)
	require.NotNil(t, ex.Target)
	assert.Equal(t, "Bob Stone", ex.Target.String())
	assert.Empty(t, ex.Changes)

	ex = Extract("Update email to a@b.com")
	assert.Nil(t, ex.Target)

	ex = Extract("Create customer Ann Lee ann@lee.io")
	assert.Equal(t, OpCreate, ex.Operation)
	assert.Nil(t, ex.Target)
	assert.Empty(t, ex.Changes)
}

func TestTargetString(t *testing.T) {
	assert.Equal(t, "ID 9", Target{ID: 9}.String())
	assert.Equal(t, "Ann Lee", Target{FirstName: "Ann", LastName: "Lee"}.String())
}
