package validators

import "go.mongodb.org/mongo-driver/bson"

var RentalListingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"property_id",
			"nightly_rate_cents",
			"cleaning_fee_cents",
			"max_guests",
			"check_in_time",
			"check_out_time",
			"active",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"property_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"nightly_rate_cents": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"cleaning_fee_cents": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"max_guests": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  100,
			},

			"rules": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"check_in_time": bson.M{
				"bsonType": "string",
				"pattern":  `^([01][0-9]|2[0-3]):[0-5][0-9]$`,
			},

			"check_out_time": bson.M{
				"bsonType": "string",
				"pattern":  `^([01][0-9]|2[0-3]):[0-5][0-9]$`,
			},

			"active": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
