package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Seeds the api_keys/current document from environment variables so a fresh
// deployment can talk to the providers without hand-editing Mongo.
func main() {
	database := flag.String("db", "studium", "database name")
	flag.Parse()

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	keys := bson.M{
		"openai-key":     os.Getenv("OPENAI_API_KEY"),
		"google-key":     os.Getenv("GOOGLE_API_KEY"),
		"groq-llama-key": os.Getenv("GROQ_API_KEY"),
		"mixtral-key":    os.Getenv("TOGETHER_API_KEY"),
	}

	coll := client.Database(*database).Collection("api_keys")
	_, err = coll.UpdateOne(ctx,
		bson.M{"_id": "current"},
		bson.M{"$set": keys},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		log.Fatalf("Failed to seed api keys: %v", err)
	}

	for field, value := range keys {
		state := "set"
		if value == "" {
			state = "EMPTY"
		}
		log.Printf("  %-16s %s", field, state)
	}
	log.Println("Seeded api_keys/current")
}
