package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"rental_id",
			"start_date",
			"end_date",
			"number_of_guests",
			"total_price_cents",
			"status",
			"guest_name",
			"guest_email",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"rental_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"start_date": bson.M{
				"bsonType": "date",
			},

			"end_date": bson.M{
				"bsonType": "date",
			},

			"number_of_guests": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"total_price_cents": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"PENDING",
					"CONFIRMED",
					"CANCELLED",
					"COMPLETED",
				},
			},

			"guest_name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"guest_email": bson.M{
				"bsonType":  "string",
				"maxLength": 254,
			},

			"guest_phone": bson.M{
				"bsonType": "string",
				"pattern":  `^$|^\+?[0-9]{6,20}$`,
			},

			"special_requests": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
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
