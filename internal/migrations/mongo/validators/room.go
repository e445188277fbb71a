package validators

import "go.mongodb.org/mongo-driver/bson"

var RoomValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "type", "price", "availability", "booked_dates"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id": bson.M{"bsonType": "objectId"},
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},
			"type": bson.M{
				"bsonType": "string",
				"enum":     []string{"Basic", "Premium", "Suite"},
			},
			"price": bson.M{
				"bsonType":         []string{"double", "int", "long", "decimal"},
				"exclusiveMinimum": true,
				"minimum":          0,
			},
			"availability": bson.M{"bsonType": "bool"},
			"booked_dates": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "date"},
			},
		},
	},
}
