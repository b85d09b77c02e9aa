package questions

import "github.com/mcoot/triviaduel/internal/model"

func q(id string, category model.Category, text string, correct string, options ...string) model.Question {
	return model.Question{
		ID:            model.QuestionID(id),
		Category:      category,
		Text:          text,
		Options:       options,
		CorrectAnswer: correct,
	}
}

// builtin is the fallback set used when the bank has too few questions.
// Every concrete category has at least QuestionsPerMatch entries.
var builtin = map[model.Category][]model.Question{
	model.CategoryFootball: {
		q("fb-01", model.CategoryFootball, "Which country won the 2022 FIFA World Cup?", "Argentina", "France", "Argentina", "Brazil", "Croatia"),
		q("fb-02", model.CategoryFootball, "Which club has won the most UEFA Champions League titles?", "Real Madrid", "AC Milan", "Bayern Munich", "Real Madrid", "Liverpool"),
		q("fb-03", model.CategoryFootball, "Who is the all-time top scorer of the men's FIFA World Cup?", "Miroslav Klose", "Ronaldo", "Miroslav Klose", "Pelé", "Gerd Müller"),
		q("fb-04", model.CategoryFootball, "How many players does each team have on the pitch?", "11", "9", "10", "11", "12"),
		q("fb-05", model.CategoryFootball, "Which country hosted the first FIFA World Cup in 1930?", "Uruguay", "Brazil", "Italy", "Uruguay", "England"),
		q("fb-06", model.CategoryFootball, "Which English club is nicknamed 'The Gunners'?", "Arsenal", "Chelsea", "Arsenal", "Tottenham Hotspur", "West Ham United"),
		q("fb-07", model.CategoryFootball, "Who won the Ballon d'Or a record eight times?", "Lionel Messi", "Cristiano Ronaldo", "Lionel Messi", "Michel Platini", "Johan Cruyff"),
		q("fb-08", model.CategoryFootball, "Which nation won UEFA Euro 2016?", "Portugal", "France", "Germany", "Portugal", "Spain"),
		q("fb-09", model.CategoryFootball, "In which city is the Camp Nou stadium?", "Barcelona", "Madrid", "Barcelona", "Valencia", "Seville"),
		q("fb-10", model.CategoryFootball, "How long is a regulation football match, excluding stoppage time?", "90 minutes", "80 minutes", "90 minutes", "100 minutes", "120 minutes"),
		q("fb-11", model.CategoryFootball, "Which country won the 2010 FIFA World Cup?", "Spain", "Netherlands", "Germany", "Spain", "Italy"),
	},
	model.CategoryBasketball: {
		q("bb-01", model.CategoryBasketball, "How many points is a shot from beyond the arc worth?", "3", "1", "2", "3", "4"),
		q("bb-02", model.CategoryBasketball, "Which NBA franchise is based in Boston?", "Celtics", "Knicks", "Celtics", "Nets", "76ers"),
		q("bb-03", model.CategoryBasketball, "Who is the NBA's all-time leading scorer?", "LeBron James", "Kareem Abdul-Jabbar", "Michael Jordan", "LeBron James", "Kobe Bryant"),
		q("bb-04", model.CategoryBasketball, "How many players per team are on the court at once?", "5", "4", "5", "6", "7"),
		q("bb-05", model.CategoryBasketball, "Who invented basketball?", "James Naismith", "James Naismith", "Walter Camp", "Abner Doubleday", "William Morgan"),
		q("bb-06", model.CategoryBasketball, "How many NBA championships did Michael Jordan win?", "6", "4", "5", "6", "7"),
		q("bb-07", model.CategoryBasketball, "Which team drafted Kobe Bryant in 1996?", "Charlotte Hornets", "Los Angeles Lakers", "Charlotte Hornets", "Philadelphia 76ers", "Boston Celtics"),
		q("bb-08", model.CategoryBasketball, "How long is an NBA quarter?", "12 minutes", "10 minutes", "12 minutes", "15 minutes", "20 minutes"),
		q("bb-09", model.CategoryBasketball, "Which player is nicknamed 'The Greek Freak'?", "Giannis Antetokounmpo", "Nikola Jokić", "Luka Dončić", "Giannis Antetokounmpo", "Kostas Antetokounmpo"),
		q("bb-10", model.CategoryBasketball, "What is the height of a regulation basketball hoop?", "10 feet", "9 feet", "10 feet", "11 feet", "12 feet"),
		q("bb-11", model.CategoryBasketball, "Which NBA team did Stephen Curry win his first title with?", "Golden State Warriors", "Golden State Warriors", "Charlotte Hornets", "Cleveland Cavaliers", "San Antonio Spurs"),
	},
	model.CategoryTennis: {
		q("tn-01", model.CategoryTennis, "Which Grand Slam tournament is played on grass?", "Wimbledon", "US Open", "French Open", "Wimbledon", "Australian Open"),
		q("tn-02", model.CategoryTennis, "Which Grand Slam is played on clay?", "French Open", "French Open", "US Open", "Wimbledon", "Australian Open"),
		q("tn-03", model.CategoryTennis, "Who has won the most French Open men's singles titles?", "Rafael Nadal", "Björn Borg", "Novak Djokovic", "Rafael Nadal", "Roger Federer"),
		q("tn-04", model.CategoryTennis, "What is a score of zero called in tennis?", "Love", "Nil", "Love", "Duck", "Zip"),
		q("tn-05", model.CategoryTennis, "How many Grand Slam singles titles did Serena Williams win?", "23", "20", "22", "23", "24"),
		q("tn-06", model.CategoryTennis, "In which city is the Australian Open held?", "Melbourne", "Sydney", "Melbourne", "Brisbane", "Perth"),
		q("tn-07", model.CategoryTennis, "What is the term for a serve the receiver fails to touch?", "Ace", "Let", "Ace", "Volley", "Smash"),
		q("tn-08", model.CategoryTennis, "Who won the 2008 Wimbledon men's final?", "Rafael Nadal", "Roger Federer", "Rafael Nadal", "Andy Murray", "Novak Djokovic"),
		q("tn-09", model.CategoryTennis, "At 6-6 in a set, what is usually played?", "Tiebreak", "Deuce", "Tiebreak", "Advantage set", "Super set"),
		q("tn-10", model.CategoryTennis, "Which country has won the most Davis Cup titles?", "United States", "Australia", "United States", "France", "Spain"),
		q("tn-11", model.CategoryTennis, "Which Grand Slam is played at Flushing Meadows?", "US Open", "US Open", "Wimbledon", "French Open", "Australian Open"),
	},
	model.CategoryOlympics: {
		q("ol-01", model.CategoryOlympics, "How many rings are on the Olympic flag?", "5", "4", "5", "6", "7"),
		q("ol-02", model.CategoryOlympics, "Which city hosted the 2012 Summer Olympics?", "London", "Beijing", "London", "Rio de Janeiro", "Athens"),
		q("ol-03", model.CategoryOlympics, "Who has won the most Olympic gold medals?", "Michael Phelps", "Usain Bolt", "Michael Phelps", "Carl Lewis", "Larisa Latynina"),
		q("ol-04", model.CategoryOlympics, "In which country did the ancient Olympic Games originate?", "Greece", "Italy", "Greece", "Egypt", "Turkey"),
		q("ol-05", model.CategoryOlympics, "Which city hosted the 2016 Summer Olympics?", "Rio de Janeiro", "Tokyo", "London", "Rio de Janeiro", "Sydney"),
		q("ol-06", model.CategoryOlympics, "How often are the Summer Olympics normally held?", "Every 4 years", "Every 2 years", "Every 3 years", "Every 4 years", "Every 5 years"),
		q("ol-07", model.CategoryOlympics, "Which sprinter holds the 100m world record of 9.58 seconds?", "Usain Bolt", "Usain Bolt", "Tyson Gay", "Yohan Blake", "Asafa Powell"),
		q("ol-08", model.CategoryOlympics, "Which city hosted the 2008 Summer Olympics?", "Beijing", "Beijing", "Athens", "Sydney", "Seoul"),
		q("ol-09", model.CategoryOlympics, "Which Summer Olympics were postponed by a year and held in 2021?", "Tokyo 2020", "Paris 2024", "Tokyo 2020", "Rio 2016", "London 2012"),
		q("ol-10", model.CategoryOlympics, "Which gymnast scored the first perfect 10 at the Olympics?", "Nadia Comăneci", "Olga Korbut", "Nadia Comăneci", "Simone Biles", "Mary Lou Retton"),
		q("ol-11", model.CategoryOlympics, "How many events make up the decathlon?", "10", "7", "8", "10", "12"),
	},
}
