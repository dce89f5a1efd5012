package mongo

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/appetiteclub/catering/pkg/mongodb"
)

// Indexes lists the indexes the storefront collections rely on.
func Indexes() []mongodb.Index {
	return []mongodb.Index{
		{Collection: categoriesCollection, Keys: bson.D{{Key: "slug", Value: 1}}, Unique: true},
		{Collection: productsCollection, Keys: bson.D{{Key: "slug", Value: 1}}, Unique: true},
		{Collection: productsCollection, Keys: bson.D{{Key: "category_id", Value: 1}, {Key: "available", Value: 1}}},
		{Collection: reviewsCollection, Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "user_id", Value: 1}, {Key: "order_id", Value: 1}}, Unique: true},
		{Collection: promoCodesCollection, Keys: bson.D{{Key: "code", Value: 1}}, Unique: true},
		{Collection: promoCodesCollection, Keys: bson.D{{Key: "restricted_to", Value: 1}}},
		{Collection: promoUsageCollection, Keys: bson.D{{Key: "promo_id", Value: 1}, {Key: "user_id", Value: 1}}},
		{
			Collection: cartsCollection,
			Keys:       bson.D{{Key: "user_id", Value: 1}},
			Unique:     true,
			Partial:    bson.M{"user_id": bson.M{"$exists": true}},
		},
		{Collection: cartsCollection, Keys: bson.D{{Key: "session_key", Value: 1}}},
		{Collection: contactCollection, Keys: bson.D{{Key: "is_read", Value: 1}, {Key: "created_at", Value: -1}}},
	}
}
