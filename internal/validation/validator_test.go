package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiffin/internal/apperr"
	"tiffin/internal/models"
)

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.KindValidation, appErr.Kind)
	out := make(map[string]string, len(appErr.Fields))
	for _, f := range appErr.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func TestTiffinCreate_Valid(t *testing.T) {
	v := New()
	body := []byte(`{
		"name": "Veg Thali",
		"description": "Dal, sabzi, roti and rice",
		"price": 150,
		"originalPrice": 180,
		"category": "North Indian",
		"image": "https://x/img.png",
		"imageKit": {"fileId": "f1", "filePath": "/tiffins/f1.png", "url": "https://ik.example/f1.png"},
		"badges": ["Vegetarian", "Chef's Special"],
		"nutrition": {"calories": 650, "protein": 20, "carbs": 80, "fat": 0}
	}`)

	in, err := v.TiffinCreate(body)
	require.NoError(t, err)

	tiffin := in.Tiffin()
	assert.Equal(t, "Veg Thali", tiffin.Name)
	assert.Equal(t, 150.0, tiffin.Price)
	assert.Equal(t, 180.0, *tiffin.OriginalPrice)
	assert.Equal(t, []string{"Vegetarian", "Chef's Special"}, tiffin.Badges)
	assert.Equal(t, &models.Nutrition{Calories: 650, Protein: 20, Carbs: 80, Fat: 0}, tiffin.Nutrition)
	assert.Equal(t, "f1", tiffin.ImageKit.FileID)
	assert.True(t, tiffin.Available, "new tiffins default to available")
}

func TestTiffinCreate_NormalizationIsIdempotent(t *testing.T) {
	v := New()
	first, err := v.TiffinCreate([]byte(`{"name":"A","description":"B","price":10,"category":"C","image":"https://x/a.png","badges":["x","y","x"],"available":false}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, first.Badges)
	assert.False(t, first.Tiffin().Available)

	again := *first
	again.Badges = dedupe(again.Badges)
	assert.Equal(t, *first, again)
}

func TestTiffinCreate_MissingFields(t *testing.T) {
	v := New()
	_, err := v.TiffinCreate([]byte(`{"name":"Veg Thali","price":150}`))

	fields := fieldsOf(t, err)
	assert.Equal(t, "is required", fields["description"])
	assert.Equal(t, "is required", fields["category"])
	assert.Equal(t, "is required", fields["image"])
	assert.NotContains(t, fields, "name")
	assert.NotContains(t, fields, "price")
}

func TestTiffinCreate_NonPositivePrice(t *testing.T) {
	v := New()
	for _, price := range []string{"-5", "0"} {
		_, err := v.TiffinCreate([]byte(`{"name":"Veg Thali","description":"d","price":` + price + `,"category":"c","image":"https://x/img.png"}`))
		fields := fieldsOf(t, err)
		assert.Contains(t, fields, "price", "price %s", price)
	}
}

func TestTiffinCreate_NestedShapes(t *testing.T) {
	v := New()
	_, err := v.TiffinCreate([]byte(`{
		"name":"A","description":"B","price":10,"category":"C","image":"not-a-url",
		"imageKit":{"fileId":"f","filePath":"p","url":"nope"},
		"nutrition":{"calories":-1,"protein":1,"carbs":1},
		"badges":["ok",""]
	}`))

	fields := fieldsOf(t, err)
	assert.Equal(t, "must be a valid URL", fields["image"])
	assert.Equal(t, "must be a valid URL", fields["imageKit.url"])
	assert.Equal(t, "must be zero or greater", fields["nutrition.calories"])
	assert.Equal(t, "is required", fields["nutrition.fat"])
	assert.Equal(t, "is required", fields["badges[1]"])
}

func TestTiffinCreate_TypeMismatch(t *testing.T) {
	v := New()
	_, err := v.TiffinCreate([]byte(`{"name":"A","price":"cheap"}`))

	fields := fieldsOf(t, err)
	assert.Equal(t, "must be a number", fields["price"])
	assert.Equal(t, "is required", fields["description"])
}

func TestTiffinCreate_ReportsEveryOffendingField(t *testing.T) {
	v := New()
	_, err := v.TiffinCreate([]byte(`{"price":"abc","description":"d","category":"c","image":"https://x/i.png"}`))

	fields := fieldsOf(t, err)
	assert.Equal(t, map[string]string{
		"price": "must be a number",
		"name":  "is required",
	}, fields)
}

func TestTiffinCreate_SubCentPrice(t *testing.T) {
	v := New()
	_, err := v.TiffinCreate([]byte(`{"name":"A","description":"d","price":10.999,"originalPrice":12.345,"category":"c","image":"https://x/i.png"}`))

	fields := fieldsOf(t, err)
	assert.Equal(t, "must have at most two decimal places", fields["price"])
	assert.Equal(t, "must have at most two decimal places", fields["originalPrice"])

	in, err := v.TiffinCreate([]byte(`{"name":"A","description":"d","price":10.99,"category":"c","image":"https://x/i.png"}`))
	require.NoError(t, err)
	assert.Equal(t, 10.99, in.Price)
}

func TestTiffinCreate_MalformedBody(t *testing.T) {
	v := New()

	fields := fieldsOf(t, func() error { _, err := v.TiffinCreate([]byte(`{"name":`)); return err }())
	assert.Contains(t, fields, "body")

	fields = fieldsOf(t, func() error { _, err := v.TiffinCreate(nil); return err }())
	assert.Equal(t, "request body is required", fields["body"])
}

func TestTiffinUpdate_Partial(t *testing.T) {
	v := New()
	in, err := v.TiffinUpdate([]byte(`{"price": 199, "available": false}`))
	require.NoError(t, err)

	tiffin := &models.Tiffin{Name: "Old", Price: 150, Available: true, Category: "Healthy"}
	in.Apply(tiffin)

	assert.Equal(t, "Old", tiffin.Name)
	assert.Equal(t, "Healthy", tiffin.Category)
	assert.Equal(t, 199.0, tiffin.Price)
	assert.False(t, tiffin.Available)
}

func TestTiffinUpdate_PresentFieldsStillConstrained(t *testing.T) {
	v := New()
	_, err := v.TiffinUpdate([]byte(`{"price": -1, "name": "", "image": "x"}`))

	fields := fieldsOf(t, err)
	assert.Equal(t, "must be a positive number", fields["price"])
	assert.Equal(t, "must not be empty", fields["name"])
	assert.Equal(t, "must be a valid URL", fields["image"])
}

func TestTiffinUpdate_NullIsRejected(t *testing.T) {
	v := New()
	_, err := v.TiffinUpdate([]byte(`{"price": null, "name": "Renamed"}`))

	fields := fieldsOf(t, err)
	assert.Equal(t, map[string]string{"price": "must not be null"}, fields)

	_, err = v.TiffinUpdate([]byte(`{"price": 12.005}`))
	assert.Equal(t, "must have at most two decimal places", fieldsOf(t, err)["price"])
}

func TestTiffinUpdate_EmptyObject(t *testing.T) {
	v := New()
	in, err := v.TiffinUpdate([]byte(`{}`))
	require.NoError(t, err)

	before := models.Tiffin{Name: "Same", Price: 1}
	after := before
	in.Apply(&after)
	assert.Equal(t, before, after)
}

func TestOrderCreate(t *testing.T) {
	v := New()
	in, err := v.OrderCreate([]byte(`{
		"userId": "u1",
		"items": [{"tiffinId": "t1", "quantity": 2}],
		"deliveryAddress": {"street": "1 MG Road", "city": "Pune"},
		"deliveryDate": "2026-11-01"
	}`))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), in.DeliveryTime())
	assert.Equal(t, "Pune", in.DeliveryAddress.City)

	_, err = v.OrderCreate([]byte(`{"userId":"u1","items":[{"tiffinId":"","quantity":-1}],"deliveryDate":"tomorrow"}`))
	fields := fieldsOf(t, err)
	assert.Equal(t, "is required", fields["items[0].tiffinId"])
	assert.Equal(t, "must be a positive number", fields["items[0].quantity"])
	assert.Equal(t, "must be an ISO-8601 date", fields["deliveryDate"])

	_, err = v.OrderCreate([]byte(`{"userId":"u1","items":[],"deliveryDate":"2026-11-01T12:00:00Z"}`))
	fields = fieldsOf(t, err)
	assert.Equal(t, "must contain at least 1 item(s)", fields["items"])
}

func TestStatusAndPaymentChange(t *testing.T) {
	v := New()

	in, err := v.StatusChange([]byte(`{"status":"out-for-delivery"}`))
	require.NoError(t, err)
	assert.Equal(t, models.OrderOutForDelivery, in.Status)

	_, err = v.StatusChange([]byte(`{"status":"shipped"}`))
	assert.Contains(t, fieldsOf(t, err), "status")

	_, err = v.PaymentChange([]byte(`{"paymentStatus":"bounced"}`))
	assert.Contains(t, fieldsOf(t, err), "paymentStatus")
}

func TestUserShapes(t *testing.T) {
	v := New()

	in, err := v.UserUpsert(nil)
	require.NoError(t, err)
	assert.Empty(t, in.Email)

	_, err = v.UserUpsert([]byte(`{"email":"not-an-email"}`))
	assert.Equal(t, "must be a valid email address", fieldsOf(t, err)["email"])

	upd, err := v.UserUpdate([]byte(`{"phone":"+919999999999","preferences":{"dietary":["veg","veg"],"spiceLevel":"mild"}}`))
	require.NoError(t, err)
	user := &models.User{Name: "Asha", Role: models.RoleUser}
	upd.Apply(user)
	assert.Equal(t, "Asha", user.Name)
	assert.Equal(t, "+919999999999", user.Phone)
	assert.Equal(t, []string{"veg"}, user.Preferences.Dietary)
	assert.Equal(t, "mild", user.Preferences.SpiceLevel)

	_, err = v.UserUpdate([]byte(`{"preferences":{"spiceLevel":"volcanic"}}`))
	assert.Contains(t, fieldsOf(t, err), "preferences.spiceLevel")
}
